package common

// Version is set during the build process via ldflags.
var Version = "dev"

// PackageName tags logs and metrics emitted by this service.
const PackageName = "scratch-storage"
