package portal

import "fmt"

// Kind names an entity type that can be created, renamed or deleted.
type Kind string

const (
	KindDepartment Kind = "department"
	KindBatch      Kind = "batch"
	KindSemester   Kind = "semester"
	KindSubject    Kind = "subject"
	KindFolder     Kind = "folder"
	KindNote       Kind = "note"
)

var collections = map[string]Kind{
	"departments": KindDepartment,
	"batches":     KindBatch,
	"semesters":   KindSemester,
	"subjects":    KindSubject,
	"folders":     KindFolder,
	"notes":       KindNote,
}

// ParseCollection maps a plural route segment ("batches") to its Kind.
func ParseCollection(s string) (Kind, error) {
	if k, ok := collections[s]; ok {
		return k, nil
	}
	return "", fmt.Errorf("unknown collection %q", s)
}

// Level returns the hierarchy level of k. Notes have no level of their own.
func (k Kind) Level() (Level, bool) {
	switch k {
	case KindDepartment:
		return LevelDepartment, true
	case KindBatch:
		return LevelBatch, true
	case KindSemester:
		return LevelSemester, true
	case KindSubject:
		return LevelSubject, true
	case KindFolder:
		return LevelFolder, true
	}
	return 0, false
}
