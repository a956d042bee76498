package textnorm

// DefaultContractions returns a fresh copy of the contraction table.
func DefaultContractions() map[string]string {
	return map[string]string{
		"can't":  "can not",
		"won't":  "will not",
		"i'm":    "i am",
		"it's":   "it is",
		"don't":  "do not",
		"i've":   "i have",
		"you're": "you are",
		"i'll":   "i will",
		"isn't":  "is not",
	}
}
