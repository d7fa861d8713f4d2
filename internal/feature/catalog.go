// AngelaMos | 2026
// catalog.go

package feature

type Category string

const (
	CategoryCreate  Category = "create"
	CategoryMedia   Category = "media"
	CategorySocial  Category = "social"
	CategoryUtility Category = "utility"
)

// Categories lists categories in navigation order.
var Categories = []Category{
	CategoryCreate,
	CategoryMedia,
	CategorySocial,
	CategoryUtility,
}

func (c Category) Valid() bool {
	switch c {
	case CategoryCreate, CategoryMedia, CategorySocial, CategoryUtility:
		return true
	}
	return false
}

// IconID names an icon from the client icon set. Unknown names resolve to
// IconSparkles.
type IconID string

const (
	IconSparkles       IconID = "Sparkles"
	IconCrown          IconID = "Crown"
	IconMessageSquare  IconID = "MessageSquare"
	IconImage          IconID = "Image"
	IconVideo          IconID = "Video"
	IconGraduationCap  IconID = "GraduationCap"
	IconGlobe          IconID = "Globe"
	IconSmartphone     IconID = "Smartphone"
	IconEraser         IconID = "Eraser"
	IconMonitorUp      IconID = "MonitorUp"
	IconUser           IconID = "User"
	IconPalette        IconID = "Palette"
	IconBox            IconID = "Box"
	IconHexagon        IconID = "Hexagon"
	IconLayoutTemplate IconID = "LayoutTemplate"
	IconFilm           IconID = "Film"
	IconSmile          IconID = "Smile"
	IconFileText       IconID = "FileText"
	IconBookOpen       IconID = "BookOpen"
	IconPresentation   IconID = "Presentation"
	IconFileType       IconID = "FileType"
	IconScrollText     IconID = "ScrollText"
	IconSubtitles      IconID = "Subtitles"
	IconLanguages      IconID = "Languages"
	IconMusic          IconID = "Music"
	IconMic            IconID = "Mic"
	IconMic2           IconID = "Mic2"
	IconSpeaker        IconID = "Speaker"
	IconHeadphones     IconID = "Headphones"
	IconInstagram      IconID = "Instagram"
	IconShare2         IconID = "Share2"
	IconQuote          IconID = "Quote"
	IconLayers         IconID = "Layers"
	IconLayout         IconID = "Layout"
	IconBell           IconID = "Bell"
	IconLightbulb      IconID = "Lightbulb"
	IconBook           IconID = "Book"
	IconCheckSquare    IconID = "CheckSquare"
	IconCalendar       IconID = "Calendar"
	IconQrCode         IconID = "QrCode"
	IconShoppingBag    IconID = "ShoppingBag"
	IconTag            IconID = "Tag"
	IconBot            IconID = "Bot"
	IconDollarSign     IconID = "DollarSign"
	IconUsers          IconID = "Users"
	IconHeart          IconID = "Heart"
	IconUserPlus       IconID = "UserPlus"
	IconFolder         IconID = "Folder"
	IconStar           IconID = "Star"
	IconClock          IconID = "Clock"
)

var knownIcons = map[IconID]struct{}{
	IconSparkles: {}, IconCrown: {}, IconMessageSquare: {}, IconImage: {},
	IconVideo: {}, IconGraduationCap: {}, IconGlobe: {}, IconSmartphone: {},
	IconEraser: {}, IconMonitorUp: {}, IconUser: {}, IconPalette: {},
	IconBox: {}, IconHexagon: {}, IconLayoutTemplate: {}, IconFilm: {},
	IconSmile: {}, IconFileText: {}, IconBookOpen: {}, IconPresentation: {},
	IconFileType: {}, IconScrollText: {}, IconSubtitles: {}, IconLanguages: {},
	IconMusic: {}, IconMic: {}, IconMic2: {}, IconSpeaker: {},
	IconHeadphones: {}, IconInstagram: {}, IconShare2: {}, IconQuote: {},
	IconLayers: {}, IconLayout: {}, IconBell: {}, IconLightbulb: {},
	IconBook: {}, IconCheckSquare: {}, IconCalendar: {}, IconQrCode: {},
	IconShoppingBag: {}, IconTag: {}, IconBot: {}, IconDollarSign: {},
	IconUsers: {}, IconHeart: {}, IconUserPlus: {}, IconFolder: {},
	IconStar: {}, IconClock: {},
}

// ResolveIcon maps a stored icon name onto the known set.
func ResolveIcon(name string) IconID {
	id := IconID(name)
	if _, ok := knownIcons[id]; ok {
		return id
	}
	return IconSparkles
}

type Feature struct {
	ID          string   `json:"id"`
	Label       string   `json:"label"`
	Path        string   `json:"path"`
	Icon        IconID   `json:"icon"`
	Enabled     bool     `json:"enabled"`
	Category    Category `json:"category"`
	Description string   `json:"description"`
}

func tool(id, label string, icon IconID, c Category, desc string) Feature {
	return Feature{
		ID:          id,
		Label:       label,
		Path:        "/tool/" + id,
		Icon:        icon,
		Enabled:     true,
		Category:    c,
		Description: desc,
	}
}

func page(id, label, path string, icon IconID, c Category, desc string) Feature {
	f := tool(id, label, icon, c, desc)
	f.Path = path
	return f
}

// Catalog returns a fresh copy of the seeded feature list, every entry
// enabled.
func Catalog() []Feature {
	return []Feature{
		page("pro-sales", "Pro Plan (Subscribe)", "/pro", IconCrown, CategoryUtility, "Unlock the full power of AI."),

		tool("chat", "AI Chat", IconMessageSquare, CategoryCreate, "Talk to the most advanced AI."),
		tool("image", "Create Images", IconImage, CategoryCreate, "Generate realistic and artistic images."),
		tool("video", "Create Short Videos", IconVideo, CategoryCreate, "Generate stunning videos with Veo."),
		tool("learn-ai", "Learn with AI", IconGraduationCap, CategoryCreate, "AI guided courses and tutorials."),

		tool("site-gen", "Website Generator", IconGlobe, CategoryCreate, "Build complete sites by describing them."),
		tool("app-builder", "App Builder", IconSmartphone, CategoryCreate, "Build no-code apps with AI."),
		tool("remove-bg", "Remove Background", IconEraser, CategoryMedia, "Remove image backgrounds automatically."),
		tool("upscale-8k", "8K Enhancer", IconMonitorUp, CategoryMedia, "Upscale photos to 8K quality."),
		tool("character-gen", "Character Generator", IconUser, CategoryCreate, "Pixar, anime or realistic style."),
		tool("photo-to-art", "Photo to Drawing", IconPalette, CategoryMedia, "Turn real photos into illustrations."),
		tool("3d-model", "3D Models", IconBox, CategoryMedia, "Generate basic 3D assets."),
		tool("logo", "Logo Generator", IconHexagon, CategoryMedia, "Professional brand concepts."),
		tool("banner", "Banner Generator", IconLayoutTemplate, CategoryMedia, "Banners for sites and social media."),
		tool("thumbnails", "Covers & Thumbnails", IconImage, CategoryMedia, "Eye-catching video covers."),
		tool("reels-maker", "Reels Maker", IconFilm, CategorySocial, "Vertical videos with music."),
		tool("tiktok-covers", "TikTok Covers", IconSmartphone, CategorySocial, "Viral covers for Shorts and TikTok."),
		tool("emoji-gen", "Custom Emojis", IconSmile, CategoryMedia, "Create your own exclusive emojis."),

		tool("writer", "Ready-made Texts", IconFileText, CategoryCreate, "Articles, essays and blogs."),
		tool("ebook", "E-book Generator", IconBookOpen, CategoryCreate, "Write complete books."),
		tool("slides", "Slide Generator", IconPresentation, CategoryUtility, "Complete presentations in seconds."),
		tool("pdf-gen", "PDF Generator", IconFileType, CategoryUtility, "Automatically formatted documents."),
		tool("contracts", "Contract Templates", IconScrollText, CategoryUtility, "Legal: purchase, sale and services."),
		tool("subtitles", "Automatic Subtitles", IconSubtitles, CategoryMedia, "Transcribe videos to text."),
		tool("translation", "Universal Translator", IconLanguages, CategoryUtility, "Accurate contextual translation."),

		tool("music-gen", "Music Generator", IconMusic, CategoryCreate, "Create original soundtracks."),
		tool("voice-gen", "Voice Generator", IconMic, CategoryCreate, "Realistic TTS: narrator, male, female."),
		tool("voice-to-text", "Voice to Text", IconMic2, CategoryUtility, "Transcribe audio and meetings."),
		tool("text-to-voice", "Text to Voice", IconSpeaker, CategoryUtility, "Natural read-aloud."),
		tool("audio-chat", "Audio Chat", IconHeadphones, CategorySocial, "Talk to the AI by voice."),

		tool("instagram", "Instagram Post", IconInstagram, CategorySocial, "Captions, hashtags and image."),
		tool("full-post", "Complete Post", IconShare2, CategorySocial, "Image + text + hashtags."),
		tool("quotes", "Motivational Quotes", IconQuote, CategorySocial, "Phrases to inspire."),
		tool("carousels", "Carousels", IconLayers, CategorySocial, "Scripts for carousel posts."),
		tool("landing-page", "Landing Pages", IconLayout, CategoryCreate, "Copywriting for sales pages."),
		tool("push-notif", "Push Notifications", IconBell, CategorySocial, "Short texts for engagement."),

		tool("ideas", "Explore Ideas", IconLightbulb, CategoryCreate, "Business and app brainstorming."),
		tool("study-buddy", "Study Assistant", IconBook, CategoryUtility, "Summaries and exam questions."),
		tool("organizer", "Personal Organizer", IconCheckSquare, CategoryUtility, "Goals and daily tasks."),
		tool("smart-agenda", "Smart Agenda", IconCalendar, CategoryUtility, "Planning with reminders."),
		tool("qr-code", "QR Codes", IconQrCode, CategoryUtility, "Generate and read QR codes."),
		tool("digital-store", "Digital Store", IconShoppingBag, CategoryCreate, "Set up your online storefront."),
		tool("premium-market", "Sell Templates", IconTag, CategoryCreate, "Marketplace for prompts and designs."),
		tool("support-bot", "Support Bot", IconBot, CategoryUtility, "Scripts for automated customer service."),
		tool("payments", "Pix Payments", IconDollarSign, CategoryUtility, "Recurring payment management."),
		tool("affiliates", "Affiliate Area", IconUsers, CategoryUtility, "Earn by referring the app."),
		tool("relationship", "Relationship Advisor", IconHeart, CategorySocial, "Relationship tips."),
		tool("avatar-sim", "Avatar Simulator", IconUserPlus, CategorySocial, "Interact with virtual personas."),

		page("library", "My Library", "/library", IconFolder, CategoryUtility, "Your saved files."),
		page("favorites", "Favorites", "/favorites", IconStar, CategoryUtility, "Preferred tools."),
		page("history", "History", "/history", IconClock, CategoryUtility, "Recent activity."),
		page("community", "Community", "/community", IconUsers, CategorySocial, "Global user feed."),
	}
}
