/*
Package buildverify checks, frame by frame, that a person standing in front of
the camera has the physical build registered for the face they show, and
signals the outcome over a serial line.

Each frame runs pose estimation in the background while faces are recognized
and the ArUco floor markers give the pixel to real world scale.  Bodies that
stand firm with their head upright are paired to the face over their nose,
their height and shoulder width are measured, converted and verified against
the build registry, and the result is debounced before it is written out.

See the cmd/buildverify program for the calibrate and detect commands.
*/
package buildverify
