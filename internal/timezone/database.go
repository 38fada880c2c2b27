package timezone

import (
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"
	"unicode"

	// Embedded IANA database so validation does not depend on the host.
	_ "time/tzdata"

	"github.com/MrSnakeDoc/bubbletime/internal/domain"
)

// Database is the zone database boundary: the list of valid identifiers
// and location lookup with validity checking.
type Database interface {
	Zones() []string
	Load(zoneID string) (*time.Location, error)
}

// zoneinfoDirs are searched in order when listing zones.
var zoneinfoDirs = []string{
	"/usr/share/zoneinfo",
	"/usr/share/lib/zoneinfo",
	"/usr/lib/locale/TZ",
}

// IANA is the default Database backed by the Go time package.
type IANA struct {
	once  sync.Once
	zones []string
	valid map[string]bool
	dirs  []string

	mu    sync.RWMutex
	cache map[string]*time.Location
}

// NewIANA creates a Database that lists zones from the host zoneinfo tree,
// or from the embedded tzdata list when none is installed.
func NewIANA() *IANA {
	dirs := zoneinfoDirs
	if env := os.Getenv("ZONEINFO"); env != "" {
		dirs = append([]string{env}, dirs...)
	}
	return &IANA{
		dirs:  dirs,
		cache: make(map[string]*time.Location),
	}
}

// Load resolves zoneID, failing with *domain.InvalidZoneError when the
// identifier is not one of Zones().
func (db *IANA) Load(zoneID string) (*time.Location, error) {
	db.Zones()
	if !db.valid[zoneID] {
		return nil, &domain.InvalidZoneError{Zone: zoneID}
	}

	db.mu.RLock()
	loc, ok := db.cache[zoneID]
	db.mu.RUnlock()
	if ok {
		return loc, nil
	}
	return db.load(zoneID)
}

// load resolves zoneID without checking it against the listed set.
func (db *IANA) load(zoneID string) (*time.Location, error) {
	// time.LoadLocation maps "" to UTC and "Local" to the host zone;
	// neither is a canonical identifier.
	if !looksLikeZone(zoneID) || zoneID == "Local" || isDuplicateTree(zoneID) {
		return nil, &domain.InvalidZoneError{Zone: zoneID}
	}

	loc, err := time.LoadLocation(zoneID)
	if err != nil {
		return nil, &domain.InvalidZoneError{Zone: zoneID, Err: err}
	}

	db.mu.Lock()
	db.cache[zoneID] = loc
	db.mu.Unlock()
	return loc, nil
}

// Zones returns every valid identifier, sorted. The result is computed once.
func (db *IANA) Zones() []string {
	db.once.Do(func() {
		for _, dir := range db.dirs {
			if zones := db.walk(dir); len(zones) > 0 {
				db.zones = zones
				break
			}
		}
		if db.zones == nil {
			db.zones = db.filterValid(builtinZones)
		}
		db.valid = make(map[string]bool, len(db.zones))
		for _, z := range db.zones {
			db.valid[z] = true
		}
	})

	out := make([]string, len(db.zones))
	copy(out, db.zones)
	return out
}

func (db *IANA) walk(root string) []string {
	info, err := os.Stat(root)
	if err != nil || !info.IsDir() {
		return nil
	}

	var names []string
	_ = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		rel, relErr := filepath.Rel(root, path)
		if relErr != nil || rel == "." {
			return nil
		}
		rel = filepath.ToSlash(rel)
		if d.IsDir() {
			if isDuplicateTree(rel) {
				return fs.SkipDir
			}
			return nil
		}
		if looksLikeZone(rel) {
			names = append(names, rel)
		}
		return nil
	})

	return db.filterValid(names)
}

func (db *IANA) filterValid(names []string) []string {
	seen := make(map[string]bool, len(names))
	valid := make([]string, 0, len(names))
	for _, name := range names {
		if seen[name] {
			continue
		}
		seen[name] = true
		if _, err := db.load(name); err == nil {
			valid = append(valid, name)
		}
	}
	sort.Strings(valid)
	return valid
}

// isDuplicateTree reports names under posix/ and right/, which mirror the
// main tree.
func isDuplicateTree(name string) bool {
	return name == "posix" || name == "right" ||
		strings.HasPrefix(name, "posix/") || strings.HasPrefix(name, "right/")
}

// looksLikeZone skips data files shipped next to the zones
// (zone.tab, tzdata.zi, leapseconds, posixrules, localtime...).
func looksLikeZone(name string) bool {
	if name == "" || strings.Contains(name, ".") {
		return false
	}
	first := []rune(name)[0]
	return unicode.IsUpper(first)
}
