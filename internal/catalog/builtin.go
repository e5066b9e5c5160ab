package catalog

// Builtin returns the demo catalog served when no other source is configured.
func Builtin() *Catalog {
	return MustNew([]MediaDescriptor{
		{ID: "D1", Source: "/D1.mov", Title: "Product Generation"},
		{ID: "D2", Source: "/D2.mov", Title: "Lifestyle Image Customization Window"},
		{ID: "D3", Source: "/D3.mov", Title: "Keyword Generation Preview"},
		{ID: "D4", Source: "/D4.mov", Title: "Headline and Subheading Generation and Customization"},
		{ID: "D5", Source: "/D5.mov", Title: "Background Generation Preview"},
		{ID: "D6", Source: "/D6.mov", Title: "Ad Previews and Customization Window"},
		{ID: "D7", Source: "/D7.mov", Title: "Organization and Generation History Preview"},
	})
}
