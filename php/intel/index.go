// Package intel holds the symbol index, its persistence and the completion
// engine that resolves access chains against it.
package intel

import (
	"sort"
	"sync"

	"github.com/tliron/commonlog"

	"github.com/dhamidi/phpintel/php"
)

var log = commonlog.GetLogger("phpintel.intel")

// Index maps class names, and the global bucket, to the files declaring
// something owned by that class.
type Index struct {
	mu      sync.RWMutex
	classes map[string]map[string]struct{}
}

func NewIndex() *Index {
	return &Index{classes: make(map[string]map[string]struct{})}
}

// IndexFromSnapshot rebuilds an index from the form returned by Snapshot.
func IndexFromSnapshot(snapshot map[string][]string) *Index {
	x := NewIndex()
	for class, files := range snapshot {
		for _, file := range files {
			x.addLocked(class, file)
		}
	}
	return x
}

// Update replaces everything recorded for file with the owners of decls.
// A file that no longer declares a class disappears from its bucket.
func (x *Index) Update(file string, decls []php.Declaration) {
	x.mu.Lock()
	defer x.mu.Unlock()

	x.removeLocked(file)
	for _, class := range php.Classes(decls) {
		x.addLocked(class, file)
	}
}

func (x *Index) Remove(file string) {
	x.mu.Lock()
	defer x.mu.Unlock()
	x.removeLocked(file)
}

func (x *Index) removeLocked(file string) {
	for class, files := range x.classes {
		delete(files, file)
		if len(files) == 0 {
			delete(x.classes, class)
		}
	}
}

func (x *Index) addLocked(class, file string) {
	files, ok := x.classes[class]
	if !ok {
		files = make(map[string]struct{})
		x.classes[class] = files
	}
	files[file] = struct{}{}
}

// Files returns the files declaring class, sorted. Unknown classes have none.
func (x *Index) Files(class string) []string {
	x.mu.RLock()
	defer x.mu.RUnlock()

	files := make([]string, 0, len(x.classes[class]))
	for file := range x.classes[class] {
		files = append(files, file)
	}
	sort.Strings(files)
	return files
}

func (x *Index) Has(class string) bool {
	x.mu.RLock()
	defer x.mu.RUnlock()
	_, ok := x.classes[class]
	return ok
}

// Classes returns every key, including the global bucket when present.
func (x *Index) Classes() []string {
	x.mu.RLock()
	defer x.mu.RUnlock()

	classes := make([]string, 0, len(x.classes))
	for class := range x.classes {
		classes = append(classes, class)
	}
	sort.Strings(classes)
	return classes
}

func (x *Index) Len() int {
	x.mu.RLock()
	defer x.mu.RUnlock()
	return len(x.classes)
}

// Merge adds every entry of other to x. Buckets present in both are united.
func (x *Index) Merge(other *Index) {
	if other == nil || other == x {
		return
	}
	snapshot := other.Snapshot()

	x.mu.Lock()
	defer x.mu.Unlock()
	for class, files := range snapshot {
		for _, file := range files {
			x.addLocked(class, file)
		}
	}
}

func (x *Index) Reset() {
	x.mu.Lock()
	defer x.mu.Unlock()
	x.classes = make(map[string]map[string]struct{})
}

// Snapshot copies the index into plain maps and sorted slices.
func (x *Index) Snapshot() map[string][]string {
	x.mu.RLock()
	defer x.mu.RUnlock()

	snapshot := make(map[string][]string, len(x.classes))
	for class, files := range x.classes {
		list := make([]string, 0, len(files))
		for file := range files {
			list = append(list, file)
		}
		sort.Strings(list)
		snapshot[class] = list
	}
	return snapshot
}
