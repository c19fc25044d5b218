package profanity

// defaultKeywords is the blocklist applied when a guardrail does not supply
// its own. Deliberately mild; deployments extend it via params.
var defaultKeywords = []string{
	"damn",
	"hell",
	"crap",
	"bastard",
	"idiot",
	"moron",
	"stupid",
	"dumbass",
	"jackass",
	"screw you",
	"shut up",
}
