package common

// BridgeVersion is the current gccbridge version as a string.
const BridgeVersion string = "0.4.0"

// ProjectFileName is the name of gccbridge project files.
const ProjectFileName string = "gccbridge.toml"

// JimpleFileExt is the file extension of emitted Jimple classes.
const JimpleFileExt string = ".jimple"

// GimpleDumpFileName is the name of the JSON dump the bridge plugin writes in
// the front-end's working directory.
const GimpleDumpFileName string = "gimple.json"

// SupportedGccVersion is the GCC release the bridge plugin is built against.
const SupportedGccVersion string = "4.6.3"

// RuntimePackage is the Java package holding the pointer wrapper classes the
// translated code is linked against.
const RuntimePackage string = "org.renjin.gcc.runtime"
