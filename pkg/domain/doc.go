/*
Package domain contains the error taxonomy shared by every layer of manipd.

Operations never return bare strings: each failure wraps one of the sentinel
kinds below so that the HTTP and MCP front-ends can map it to a status code or
tool error without inspecting messages.

# Kinds

  - ErrNoRobot: the active problem has no kinematic tree yet.
  - ErrNotFound: a joint, body, model, frame or problem key is unknown.
  - ErrDuplicateName: a frame, joint or obstacle name is already taken.
  - ErrModelLoad / ErrEnvironmentLoad: the model loader failed.
  - ErrInvalidTransform: a 7-float transform could not be decoded.
  - ErrNoActiveProblem: no problem is selected.
*/
package domain
