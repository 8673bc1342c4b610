/*
Package observation defines the per frame detections handed from the pose and
face collaborators to the decision pipeline.  Observations are immutable once
constructed and only live for the frame they were produced in.
*/
package observation
