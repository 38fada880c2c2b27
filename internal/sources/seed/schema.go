package seed

// File is the top-level structure of a seed file:
//
//	bubbles:
//	  - key: home
//	    zone: Europe/Madrid
//	    name: Home
//	  - key: office
//	    zone: America/New_York
//	links:
//	  - [home, office]
type File struct {
	Bubbles []BubbleEntry `yaml:"bubbles"`
	Links   []LinkEntry   `yaml:"links,omitempty"`
}

// BubbleEntry declares one bubble. Key is local to the file and only used
// to reference the bubble from links.
type BubbleEntry struct {
	Key  string `yaml:"key"`
	Zone string `yaml:"zone"`
	Name string `yaml:"name,omitempty"`
}

// LinkEntry is a pair of bubble keys, first then second.
type LinkEntry [2]string
