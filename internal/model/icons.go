package model

// Icons for flag kinds and states in the terminal and web views.
// Single-width characters keep columns aligned.
const (
	IconDefine    = "#"
	IconInclude   = "I"
	IconSystem    = "S"
	IconQuote     = "Q"
	IconSysroot   = "R"
	IconWarning   = "W"
	IconOther     = " "
	IconRewritten = "→" // path made absolute
	IconDuplicate = "≈"
	IconMissing   = "✗"
)

// IconFor returns the icon shown next to a flag of the given kind.
func IconFor(k FlagKind) string {
	switch k {
	case KindDefine:
		return IconDefine
	case KindInclude, KindPathArg:
		return IconInclude
	case KindSystemInclude:
		return IconSystem
	case KindQuoteInclude:
		return IconQuote
	case KindSysroot:
		return IconSysroot
	case KindWarning:
		return IconWarning
	}
	return IconOther
}
