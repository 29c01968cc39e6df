package model

// Version is the application version. Overridden at build time with
// -ldflags "-X ycmflags/internal/model.Version=...".
var Version = "0.3.0"
