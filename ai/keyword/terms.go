package keyword

// categoryTerms maps a category to the words that signal it. Multi-word terms
// match as phrases; single words also match their plural.
var categoryTerms = map[string][]string{
	"automotive":  {"tire", "dashcam", "dash cam", "car charger", "car mount", "wiper", "motor oil"},
	"baby":        {"diaper", "stroller", "pacifier", "crib", "car seat", "baby monitor"},
	"beauty":      {"lipstick", "makeup", "moisturizer", "perfume", "shampoo", "serum", "mascara", "sunscreen"},
	"books":       {"book", "novel", "paperback", "hardcover", "kindle"},
	"clothing":    {"shirt", "t-shirt", "jacket", "hoodie", "jeans", "dress", "pants", "socks", "sweater", "coat", "leggings"},
	"electronics": {"earbud", "headphone", "earphone", "airpods", "laptop", "phone", "iphone", "tablet", "ipad", "tv", "television", "monitor", "camera", "charger", "speaker", "keyboard", "mouse", "console", "smartwatch", "usb", "cable", "router", "ssd", "power bank"},
	"garden":      {"hose", "planter", "seeds", "lawn", "mower", "shovel", "sprinkler"},
	"grocery":     {"snack", "cereal", "tea", "coffee beans", "protein bar", "olive oil"},
	"health":      {"vitamin", "thermometer", "supplement", "first aid", "toothbrush"},
	"home":        {"lamp", "pillow", "blanket", "sheet", "towel", "curtain", "rug", "chair", "desk", "sofa", "vacuum", "mattress"},
	"jewelry":     {"necklace", "ring", "earring", "bracelet", "pendant"},
	"kitchen":     {"blender", "cookware", "pan", "pot", "knife", "toaster", "kettle", "coffee maker", "mug", "air fryer"},
	"office":      {"printer", "pen", "notebook", "stapler", "paper", "desk organizer"},
	"pet":         {"dog", "cat", "leash", "litter", "pet bed", "collar"},
	"shoes":       {"sneaker", "shoe", "boot", "sandal", "slipper", "cleat"},
	"sports":      {"yoga", "dumbbell", "bike", "bicycle", "treadmill", "tent", "football", "basketball", "kettlebell"},
	"tools":       {"drill", "screwdriver", "wrench", "hammer", "saw", "tool set"},
	"toys":        {"lego", "toy", "doll", "puzzle", "board game", "action figure"},
}

// questionStarts are leading words that make a query read as a question.
var questionStarts = map[string]bool{
	"what": true, "which": true, "how": true, "why": true, "should": true, "where": true,
	"who": true, "can": true, "do": true, "does": true, "is": true, "are": true, "any": true,
}

// browsePhrases mark a query that asks for ideas instead of naming a product.
var browsePhrases = []string{"gift", "ideas", "idea", "recommend", "suggestion", "something for", "inspiration"}

// fillerWords carry no product meaning and are dropped from alternate queries.
var fillerWords = map[string]bool{
	"best": true, "cheap": true, "cheapest": true, "good": true, "top": true, "buy": true,
	"new": true, "affordable": true, "quality": true, "deal": true, "deals": true, "sale": true,
	"the": true, "a": true, "an": true, "for": true, "with": true,
}

// synonyms broaden a query when dropping filler words changes nothing.
var synonyms = map[string]string{
	"airpods":    "wireless earbuds",
	"earbuds":    "earphones",
	"tv":         "television",
	"laptop":     "notebook computer",
	"sneakers":   "running shoes",
	"hoodie":     "sweatshirt",
	"smartwatch": "fitness tracker",
	"sofa":       "couch",
}

var colors = []string{"black", "white", "red", "blue", "green", "pink", "silver", "gold", "gray", "grey", "purple", "yellow", "orange", "brown"}
