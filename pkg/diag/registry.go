package diag

// Template is the registered default for a Category.
type Template struct {
	Code    string
	Level   Level
	Header  string
	Message string
}

// registry maps categories to their templates.
var registry = map[Category]Template{
	// ============================================
	// Lifecycle (V001-V049)
	// ============================================

	CategoryBundleLoad: {
		Code:    "V001",
		Level:   LevelError,
		Header:  "Bundle load failed",
		Message: "The component module or its styles could not be loaded.",
	},
	CategoryInstanceInit: {
		Code:    "V002",
		Level:   LevelError,
		Header:  "Instance construction failed",
		Message: "The component constructor failed.",
	},
	CategoryEventReplay: {
		Code:    "V003",
		Level:   LevelError,
		Header:  "Queued event replay failed",
		Message: "A listener failed while replaying an event queued before the instance existed.",
	},
	CategoryPreLoadHook: {
		Code:    "V004",
		Level:   LevelError,
		Header:  "WillLoad failed",
		Message: "The pre-load hook failed; the first render continues.",
	},
	CategoryRender: {
		Code:    "V005",
		Level:   LevelError,
		Header:  "Render failed",
		Message: "The component's Render failed; the previous output is kept.",
	},
	CategoryPostLoadHook: {
		Code:    "V006",
		Level:   LevelError,
		Header:  "DidLoad failed",
		Message: "The post-load hook failed.",
	},
	CategoryPreUpdateHook: {
		Code:    "V007",
		Level:   LevelError,
		Header:  "WillUpdate failed",
		Message: "The pre-update hook failed; the re-render continues.",
	},
	CategoryPostUpdateHook: {
		Code:    "V008",
		Level:   LevelError,
		Header:  "DidUpdate failed",
		Message: "The post-update hook failed.",
	},
	CategoryUnload: {
		Code:    "V009",
		Level:   LevelError,
		Header:  "DidUnload failed",
		Message: "The unload hook failed; teardown continues.",
	},
	CategoryEvent: {
		Code:    "V010",
		Level:   LevelError,
		Header:  "Listener failed",
		Message: "A declared host listener failed.",
	},
	CategoryWatch: {
		Code:    "V011",
		Level:   LevelError,
		Header:  "Change hook failed",
		Message: "A member change hook failed.",
	},

	// ============================================
	// Hydration (V050-V099)
	// ============================================

	CategoryHydrate: {
		Code:    "V050",
		Level:   LevelInfo,
		Header:  "Hydrate",
		Message: "Hydration finished.",
	},
	CategoryTimeout: {
		Code:    "V051",
		Level:   LevelError,
		Header:  "Hydrate timed out",
		Message: "Hydration did not complete before the deadline.",
	},
}

// Lookup returns the template registered for category.
func Lookup(category Category) (Template, bool) {
	t, ok := registry[category]
	return t, ok
}
