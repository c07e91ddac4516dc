package version

// Version is the semantic version of this build. Overridable at link time.
var Version = "0.1.0"

func String() string {
	return Version
}
