package civitai

import "strings"

// Priority-ordered category list. The first entry found in a model's tag set
// becomes its category; models matching none fall back to "other".
var categories = []string{
	"character",
	"style",
	"celebrity",
	"concept",
	"clothing",
	"base model",
	"poses",
	"background",
	"tool",
	"buildings",
	"vehicle",
	"objects",
	"animal",
	"action",
	"asset",
}

// Keywords indicating NSFW content. The remote nsfw tagging is unreliable, so
// entries without an explicit nsfwLevel are matched against these.
var nsfwWords = []string{
	"blood",
	"gore",
	"nsfw",
	"sex",
	"nude",
	"naked",
	"areola",
	"breast",
	"nipple",
	"tits",
	"titjob",
	"fuck",
	"boob",
	"topless",
	"ass",
	"anal",
	"pussy",
	"cameltoe",
	"vagina",
	"hentai",
	"furry",
	"anthro",
	"underwear",
	"lingerie",
	"pantie",
	"tentacle",
	"fetish",
	"gag",
	"bondage",
	"penis",
	"cock",
	"bbc",
	"bj",
	"futa",
	"deepthroat",
	"blowjob",
	"cum",
	"bukkake",
	"porn",
	"waifu",
	"erotic",
	"fellatio",
	"prolapse",
	"peeing",
	"bimbo",
}

// Creators known to publish NSFW content without marking their models.
var nsfwCreators = []string{
	"wisematronai",
	"tipzy",
	"hearmeneigh",
	"runkun07",
	"scorchingflames",
	"xsiri1",
	"wtfusion",
	"sworddaolee",
	"myk3sr621",
	"ai_art_factory",
	"new50",
	"nomosx",
	"watterystool",
	"mik357",
	"kankybou44",
	"janloy",
	"throwawayjm",
	"blueb",
	"eldisss",
	"sono36484is989",
	"ydoomenaud",
	"shivae",
	"hoshi119",
}

// nsfwLevelLegacy is the level assigned when the keyword heuristic matches an
// entry that carries no explicit nsfwLevel field.
const nsfwLevelLegacy = 50

// selectCategory returns the first category present in tags, or "other".
func selectCategory(tags []string) string {
	tagSet := make(map[string]struct{}, len(tags))
	for _, tag := range tags {
		tagSet[tag] = struct{}{}
	}

	for _, category := range categories {
		if _, ok := tagSet[category]; ok {
			return category
		}
	}

	return "other"
}

// containsNSFWWord reports whether any NSFW keyword occurs in s,
// case-insensitively.
func containsNSFWWord(s string) bool {
	s = strings.ToLower(s)
	for _, word := range nsfwWords {
		if strings.Contains(s, word) {
			return true
		}
	}
	return false
}

// isNSFWCreator reports whether the creator is on the unmarked-NSFW allowlist.
func isNSFWCreator(username string) bool {
	username = strings.ToLower(username)
	for _, creator := range nsfwCreators {
		if username == creator {
			return true
		}
	}
	return false
}

// detectNSFWLegacy applies the keyword heuristic: a creator allowlist hit or a
// keyword match in the tags, the model name, or the first preview image's
// prompt marks the entry NSFW.
func detectNSFWLegacy(creator, name, prompt string, tags []string) bool {
	if isNSFWCreator(creator) {
		return true
	}

	for _, tag := range tags {
		if containsNSFWWord(tag) {
			return true
		}
	}

	return containsNSFWWord(name) || containsNSFWWord(prompt)
}
