package gate

// Default message pools and the error-hint table. All of them can be
// replaced wholesale from configuration.

func defaultRelaxationMessages() []string {
	return []string{
		"Take a deep breath. The solution is often simpler than it seems.",
		"Consider taking a 2-minute break to clear your mind.",
		"Try breaking the problem down into smaller parts.",
		"Sometimes walking away for a moment helps. Why not stretch?",
		"You've solved harder problems before. You can do this!",
		"Take a moment to review your logic step by step.",
		"Remember: every expert was once a beginner.",
		"Try explaining the problem to someone (or to a rubber duck).",
		"Your brain needs rest. A short break will help.",
		"Progress, not perfection. You're getting there!",
	}
}

func defaultEncouragementMessages() []string {
	return []string{
		"You're making great progress!",
		"Keep up the good work!",
		"Every error is a learning opportunity.",
		"You've got this!",
		"Persistence pays off!",
		"Your code is getting better with every line!",
		"Debugging is just problem-solving in disguise.",
		"You're building something great!",
		"Small steps lead to big achievements.",
	}
}

func defaultSuccessMessages() []string {
	return []string{
		"Great job fixing that error!",
		"You're making excellent progress!",
		"Keep up the good work!",
		"Another problem solved!",
		"Well done! That error won't stop you!",
	}
}

// generalHintKey is the fallback row consulted when nothing more specific
// matches.
const generalHintKey = "general"

func defaultErrorHints() map[string]string {
	return map[string]string{
		"syntax error":         "Check for missing semicolons, brackets, or parentheses",
		"missing semicolon":    "You might be missing a semicolon at the end of a statement",
		"undefined reference":  "You might be missing a header file or library link",
		"missing header":       "Check if you've included the necessary header files",
		"segmentation fault":   "Check for null pointers or array bounds",
		"null pointer":         "Make sure to initialize pointers before using them",
		"array bounds":         "Ensure array indices are within bounds",
		"uninitialized":        "Initialize variables before using them",
		"memory leak":          "Remember to free allocated memory",
		"buffer overflow":      "Check array sizes and string lengths",
		"type mismatch":        "Ensure types are compatible",
		"no matching function": "Check function parameters and overloads",
		"ambiguous":            "Make the call more specific",
		"redefinition":         "Remove duplicate declarations",
		"undeclared":           "Declare variables before using them",
		"incomplete type":      "Include the full type definition",
		generalHintKey:         "Take a deep breath. Try breaking the problem down into smaller parts.",
	}
}
