package portal

import "fmt"

// Level is one step of the Department > Batch > Semester > Subject > Folder chain.
type Level int

const (
	LevelDepartment Level = iota
	LevelBatch
	LevelSemester
	LevelSubject
	LevelFolder
)

// Levels lists every level from shallowest to deepest.
var Levels = []Level{LevelDepartment, LevelBatch, LevelSemester, LevelSubject, LevelFolder}

// String returns the entity kind name used in routes and logs.
func (l Level) String() string {
	switch l {
	case LevelDepartment:
		return "department"
	case LevelBatch:
		return "batch"
	case LevelSemester:
		return "semester"
	case LevelSubject:
		return "subject"
	case LevelFolder:
		return "folder"
	default:
		return fmt.Sprintf("level(%d)", int(l))
	}
}

// Param returns the deep-link query parameter for the level.
func (l Level) Param() string {
	switch l {
	case LevelDepartment:
		return "dept"
	case LevelBatch:
		return "batch"
	case LevelSemester:
		return "sem"
	case LevelSubject:
		return "sub"
	case LevelFolder:
		return "folder"
	default:
		return ""
	}
}

// ParseLevel accepts either the kind name or the query parameter.
func ParseLevel(s string) (Level, error) {
	for _, l := range Levels {
		if l.String() == s || l.Param() == s {
			return l, nil
		}
	}
	return 0, fmt.Errorf("unknown hierarchy level %q", s)
}

// Scope identifies the subject bucket that folders and notes are filed under.
// SemesterID is always part of the key so every semester has its own
// general bucket.
type Scope struct {
	DepartmentID string `json:"department_id"`
	BatchID      string `json:"batch_id"`
	SemesterID   string `json:"semester_id"`
	SubjectID    string `json:"subject_id"`
}

// Complete reports whether every component of the scope is set.
func (s Scope) Complete() bool {
	return s.DepartmentID != "" && s.BatchID != "" && s.SemesterID != "" && s.SubjectID != ""
}
