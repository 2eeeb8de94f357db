package meme

// Default vocabulary the prompt synthesizer draws from when no themed
// override applies. These tables are fixed configuration, not derived.

var defaultObjects = []string{
	"a golden throne", "a pile of crypto coins", "a giant pizza", "a flaming dumpster", "a rocket ship",
	"a bean bag", "a stack of memes", "a cloud of glitter", "a disco ball", "a vintage typewriter",
	"a glowing lightsaber", "a treasure chest", "a giant rubber duck", "a holographic globe",
	"a floating island", "a neon sign", "a steampunk airship", "a crystal skull", "a massive cupcake",
	"a levitating book", "a robotic arm", "a glowing portal", "a pirate ship wheel",
	"a diamond-encrusted crown", "a retro arcade machine", "a mystical obelisk", "a floating lantern",
	"a giant hourglass",
}

var defaultStyles = []string{
	"cartoon-style", "pixel art", "anime-style", "retro meme aesthetic", "realistic", "cyberpunk",
	"watercolor", "surrealist", "steampunk", "minimalist", "oil painting", "vaporwave", "gothic",
	"abstract", "pop art", "baroque", "futuristic", "pastel", "graffiti", "stained glass",
	"line art", "3D render", "chalkboard sketch",
}

var defaultScenes = []string{
	"explosion", "fireworks", "storm", "rainbow", "space", "underwater", "volcano", "party", "wwe ring",
	"haunted forest", "city skyline at night", "desert oasis", "frozen tundra", "neon-lit alley",
	"ancient ruins", "floating city", "cosmic void", "enchanted castle", "bamboo forest",
	"post-apocalyptic wasteland", "underwater coral reef", "sky temple", "alien marketplace",
	"victorian ballroom", "cybernetic jungle", "lunar surface", "carnival at dusk",
}

var defaultColors = []string{
	"red", "blue", "green", "yellow", "purple", "orange", "pink", "black", "white", "turquoise",
	"gold", "silver", "violet", "cyan", "magenta", "lime", "teal", "emerald", "ruby", "sapphire",
	"amber", "coral", "lavender", "bronze", "ivory", "charcoal", "peach", "mint",
}

var toiletTheme = Theme{
	Kind:    KindToilet,
	Objects: []string{"a golden toilet", "a pile of toilet paper", "a plunger", "a toilet brush"},
	Styles:  []string{"toilet paper aesthetic", "grungy bathroom vibe"},
	Scenes:  []string{"sewer explosion", "toilet flush storm"},
	Colors:  []string{"poop brown", "toilet blue", "slime green"},
}

var lofiTheme = Theme{
	Kind:    KindLofi,
	Objects: []string{"a chill record player", "a stack of vinyl records", "a retro lamp"},
	Styles:  []string{"lofi aesthetic", "vaporwave style"},
	Scenes:  []string{"vaporwave sunset", "chill night city"},
	Colors:  []string{"pastel purple", "neon pink", "soft blue"},
}
