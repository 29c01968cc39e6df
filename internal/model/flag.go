package model

// FlagKind classifies a single compiler flag.
type FlagKind string

const (
	KindDefine        FlagKind = "define"
	KindInclude       FlagKind = "include"
	KindSystemInclude FlagKind = "system-include"
	KindQuoteInclude  FlagKind = "quote-include"
	KindSysroot       FlagKind = "sysroot"
	KindPathArg       FlagKind = "path-arg" // separate path token after a marker
	KindWarning       FlagKind = "warning"
	KindStandard      FlagKind = "standard"
	KindOther         FlagKind = "other"
)

// Result is what the host receives for a file. Field names follow the
// completion engine's contract.
type Result struct {
	Flags   []string `json:"flags"`
	DoCache bool     `json:"do_cache"`
}

// Source tells which mode produced a result.
type Source string

const (
	SourceDatabase Source = "database"
	SourceStatic   Source = "static"
)

// Resolution is a Result plus the inputs that produced it.
type Resolution struct {
	Result
	File       string
	Source     Source
	WorkingDir string
	Original   []string // flags before rewriting and removal
	Removed    []string // flags dropped by remove_flags
}

// FlagEntry is one flag in an analysed result.
type FlagEntry struct {
	Value       string   // The flag as returned to the host
	Original    string   // The flag before rewriting
	Kind        FlagKind
	Path        string   // Path argument, if the flag carries one
	Rewritten   bool     // True if the path was made absolute
	IsDuplicate bool     // True if the include dir already appeared
	DuplicateOf int      // Index of the first occurrence
	Missing     bool     // True if the path does not exist on disk
	Diagnostics []string
}

// Analysis is the processed view of a Resolution.
type Analysis struct {
	File        string
	Source      Source
	WorkingDir  string
	Entries     []FlagEntry
	Diagnostics []string
}
