package scope

// Built-in theme used when a config file omits a section or when no
// config file exists at all. The palette is intentionally small; a real
// project is expected to bring its own.

func defaultColors() map[string]map[string]string {
	return map[string]map[string]string{
		"white":       {"": "#ffffff"},
		"black":       {"": "#000000"},
		"transparent": {"": "transparent"},
		"gray": {
			"50": "#f9fafb", "100": "#f3f4f6", "200": "#e5e7eb", "300": "#d1d5db",
			"400": "#9ca3af", "500": "#6b7280", "600": "#4b5563", "700": "#374151",
			"800": "#1f2937", "900": "#111827",
		},
		"red": {
			"50": "#fef2f2", "100": "#fee2e2", "200": "#fecaca", "300": "#fca5a5",
			"400": "#f87171", "500": "#ef4444", "600": "#dc2626", "700": "#b91c1c",
			"800": "#991b1b", "900": "#7f1d1d",
		},
		"green": {
			"50": "#f0fdf4", "100": "#dcfce7", "200": "#bbf7d0", "300": "#86efac",
			"400": "#4ade80", "500": "#22c55e", "600": "#16a34a", "700": "#15803d",
			"800": "#166534", "900": "#14532d",
		},
		"blue": {
			"50": "#eff6ff", "100": "#dbeafe", "200": "#bfdbfe", "300": "#93c5fd",
			"400": "#60a5fa", "500": "#3b82f6", "600": "#2563eb", "700": "#1d4ed8",
			"800": "#1e40af", "900": "#1e3a8a",
		},
		"yellow": {
			"50": "#fefce8", "100": "#fef9c3", "200": "#fef08a", "300": "#fde047",
			"400": "#facc15", "500": "#eab308", "600": "#ca8a04", "700": "#a16207",
			"800": "#854d0e", "900": "#713f12",
		},
	}
}

func defaultSpacing() map[string]string {
	return map[string]string{
		"0": "0px", "1": "0.25rem", "2": "0.5rem", "3": "0.75rem",
		"4": "1rem", "5": "1.25rem", "6": "1.5rem", "8": "2rem",
		"10": "2.5rem", "12": "3rem", "16": "4rem", "24": "6rem",
	}
}

func defaultScreens() []string {
	return []string{"lg", "md", "sm", "xl"}
}
