// Package navigation tracks the Department > Batch > Semester > Subject > Folder
// drill-down and keeps the dependent child lists consistent with it.
package navigation

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"coursehub/internal/domain"
	models "coursehub/internal/domain/models/portal"
)

const levelCount = int(models.LevelFolder) + 1

// Catalog lists the children of one hierarchy node.
type Catalog interface {
	ListDepartments(ctx context.Context) ([]models.Department, error)
	ListBatches(ctx context.Context, departmentID string) ([]models.Batch, error)
	ListSemesters(ctx context.Context, batchID string) ([]models.Semester, error)
	ListSubjects(ctx context.Context, semesterID string) ([]models.Subject, error)
	ListFolders(ctx context.Context, scope models.Scope) ([]models.Folder, error)
	ListNotes(ctx context.Context, scope models.Scope) ([]models.Note, error)
}

// Navigator is the selection state machine. Every Select call clears all
// deeper selections and lists before fetching the new children. Fetches run
// without holding the lock; each is tagged with a generation and its result
// is dropped if a selection at the same or a shallower level happened meanwhile.
type Navigator struct {
	catalog Catalog
	logger  *slog.Logger

	mu sync.Mutex
	// gen[0] guards the department list, gen[l+1] the children of level l.
	gen [levelCount + 1]uint64

	departments []models.Department
	batches     []models.Batch
	semesters   []models.Semester
	subjects    []models.Subject
	folders     []models.Folder
	notes       []models.Note

	department *models.Department
	batch      *models.Batch
	semester   *models.Semester
	subject    *models.Subject
	folder     *models.Folder
}

func New(catalog Catalog, logger *slog.Logger) *Navigator {
	return &Navigator{
		catalog: catalog,
		logger:  logger.With("component", "navigator"),
	}
}

// Load resets every selection and fetches the department list.
func (n *Navigator) Load(ctx context.Context) error {
	n.mu.Lock()
	n.unselectFrom(models.LevelDepartment)
	n.dropListsFrom(models.LevelDepartment)
	n.departments = nil
	for i := range n.gen {
		n.gen[i]++
	}
	tag := n.gen[0]
	n.mu.Unlock()

	depts, err := n.catalog.ListDepartments(ctx)

	n.mu.Lock()
	defer n.mu.Unlock()
	if n.gen[0] != tag {
		n.logger.Debug("discarding stale department list")
		return nil
	}
	if err != nil {
		n.logger.Warn("failed to load departments", "error", err)
		return fmt.Errorf("load departments: %w", err)
	}
	n.departments = depts
	return nil
}

func (n *Navigator) SelectDepartment(ctx context.Context, id string) error {
	return n.selectAndFetch(ctx, models.LevelDepartment, id, func(ctx context.Context, _ models.Scope) (func(), error) {
		batches, err := n.catalog.ListBatches(ctx, id)
		if err != nil {
			return nil, err
		}
		return func() { n.batches = batches }, nil
	})
}

func (n *Navigator) SelectBatch(ctx context.Context, id string) error {
	return n.selectAndFetch(ctx, models.LevelBatch, id, func(ctx context.Context, _ models.Scope) (func(), error) {
		semesters, err := n.catalog.ListSemesters(ctx, id)
		if err != nil {
			return nil, err
		}
		return func() { n.semesters = semesters }, nil
	})
}

func (n *Navigator) SelectSemester(ctx context.Context, id string) error {
	return n.selectAndFetch(ctx, models.LevelSemester, id, func(ctx context.Context, _ models.Scope) (func(), error) {
		subjects, err := n.catalog.ListSubjects(ctx, id)
		if err != nil {
			return nil, err
		}
		subjects = withGeneral(subjects, id)
		return func() { n.subjects = subjects }, nil
	})
}

// SelectSubject fetches folders and notes together. The synthetic general
// subject is fetched with its literal id like any other.
func (n *Navigator) SelectSubject(ctx context.Context, id string) error {
	return n.selectAndFetch(ctx, models.LevelSubject, id, func(ctx context.Context, scope models.Scope) (func(), error) {
		var (
			folders []models.Folder
			notes   []models.Note
		)
		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() error {
			var err error
			folders, err = n.catalog.ListFolders(gctx, scope)
			return err
		})
		g.Go(func() error {
			var err error
			notes, err = n.catalog.ListNotes(gctx, scope)
			return err
		})
		if err := g.Wait(); err != nil {
			return nil, err
		}
		return func() {
			n.folders = folders
			n.notes = notes
		}, nil
	})
}

// SelectFolder narrows the visible notes to one folder. No fetch happens.
func (n *Navigator) SelectFolder(id string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	_, _, err := n.transition(models.LevelFolder, id)
	return err
}

// ClearFolder shows the subject root notes again.
func (n *Navigator) ClearFolder() {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.folder = nil
	n.bump(models.LevelFolder)
}

// Select dispatches on level. Folder selection ignores ctx.
func (n *Navigator) Select(ctx context.Context, level models.Level, id string) error {
	switch level {
	case models.LevelDepartment:
		return n.SelectDepartment(ctx, id)
	case models.LevelBatch:
		return n.SelectBatch(ctx, id)
	case models.LevelSemester:
		return n.SelectSemester(ctx, id)
	case models.LevelSubject:
		return n.SelectSubject(ctx, id)
	case models.LevelFolder:
		return n.SelectFolder(id)
	default:
		return &domain.ValidationError{Message: fmt.Sprintf("unknown level %d", int(level))}
	}
}

// Params serializes the selection chain for a deep link.
func (n *Navigator) Params() url.Values {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.params()
}

// Query is Params encoded in hierarchy order rather than key order.
func (n *Navigator) Query() string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return encodeOrdered(n.params())
}

// Rehydrate rebuilds the selection from deep-link params, resolving each level
// against freshly fetched children. It stops at the first missing or unknown
// id without reporting an error; only fetch failures are returned.
func (n *Navigator) Rehydrate(ctx context.Context, params url.Values) error {
	if err := n.Load(ctx); err != nil {
		return err
	}
	for _, level := range models.Levels {
		id := params.Get(level.Param())
		if id == "" {
			return nil
		}

		n.mu.Lock()
		ok := n.resolves(level, id)
		n.mu.Unlock()
		if !ok {
			n.logger.Debug("deep link stopped at unresolved id", "level", level, "id", id)
			return nil
		}

		if err := n.Select(ctx, level, id); err != nil {
			return err
		}
	}
	return nil
}

// Refresh refetches every list along the current selection.
func (n *Navigator) Refresh(ctx context.Context) error {
	return n.Rehydrate(ctx, n.Params())
}

// selectAndFetch applies a selection under the lock, then runs fetch outside
// it and applies the result only if the level's generation is unchanged.
// fetch receives the scope of the chain as it was when the selection applied.
func (n *Navigator) selectAndFetch(ctx context.Context, level models.Level, id string, fetch func(context.Context, models.Scope) (func(), error)) error {
	n.mu.Lock()
	tag, needFetch, err := n.transition(level, id)
	scope := n.scopeFor(id)
	n.mu.Unlock()
	if err != nil || !needFetch {
		return err
	}

	apply, err := fetch(ctx, scope)

	n.mu.Lock()
	defer n.mu.Unlock()
	if n.gen[level+1] != tag {
		n.logger.Debug("discarding stale fetch", "level", level, "id", id)
		return nil
	}
	if err != nil {
		n.logger.Warn("failed to load children", "level", level, "id", id, "error", err)
		return fmt.Errorf("load %s children: %w", level, err)
	}
	apply()
	return nil
}

// transition must be called with mu held. Selecting the current id toggles
// the level off and requests no fetch.
func (n *Navigator) transition(level models.Level, id string) (uint64, bool, error) {
	if !n.resolves(level, id) {
		return 0, false, &domain.NotFoundError{Message: fmt.Sprintf("%s %q is not a child of the current selection", level, id)}
	}

	if n.selectedID(level) == id {
		n.unselectFrom(level)
		n.dropListsFrom(level + 1)
		n.bump(level)
		return 0, false, nil
	}

	n.setSelection(level, id)
	n.unselectFrom(level + 1)
	n.dropListsFrom(level + 1)
	return n.bump(level), true, nil
}

// bump advances the generation of level and every deeper level and returns
// the new generation of level's children.
func (n *Navigator) bump(level models.Level) uint64 {
	for i := int(level) + 1; i < len(n.gen); i++ {
		n.gen[i]++
	}
	return n.gen[level+1]
}

func (n *Navigator) unselectFrom(level models.Level) {
	if level <= models.LevelDepartment {
		n.department = nil
	}
	if level <= models.LevelBatch {
		n.batch = nil
	}
	if level <= models.LevelSemester {
		n.semester = nil
	}
	if level <= models.LevelSubject {
		n.subject = nil
	}
	if level <= models.LevelFolder {
		n.folder = nil
	}
}

// dropListsFrom clears the cached entity lists of level and deeper.
// Notes are held with the folder level.
func (n *Navigator) dropListsFrom(level models.Level) {
	if level <= models.LevelBatch {
		n.batches = nil
	}
	if level <= models.LevelSemester {
		n.semesters = nil
	}
	if level <= models.LevelSubject {
		n.subjects = nil
	}
	if level <= models.LevelFolder {
		n.folders = nil
		n.notes = nil
	}
}

func (n *Navigator) selectedID(level models.Level) string {
	switch level {
	case models.LevelDepartment:
		if n.department != nil {
			return n.department.ID
		}
	case models.LevelBatch:
		if n.batch != nil {
			return n.batch.ID
		}
	case models.LevelSemester:
		if n.semester != nil {
			return n.semester.ID
		}
	case models.LevelSubject:
		if n.subject != nil {
			return n.subject.ID
		}
	case models.LevelFolder:
		if n.folder != nil {
			return n.folder.ID
		}
	}
	return ""
}

func (n *Navigator) resolves(level models.Level, id string) bool {
	if id == "" {
		return false
	}
	switch level {
	case models.LevelDepartment:
		return find(n.departments, id, func(d models.Department) string { return d.ID }) != nil
	case models.LevelBatch:
		return find(n.batches, id, func(b models.Batch) string { return b.ID }) != nil
	case models.LevelSemester:
		return find(n.semesters, id, func(s models.Semester) string { return s.ID }) != nil
	case models.LevelSubject:
		return find(n.subjects, id, func(s models.Subject) string { return s.ID }) != nil
	case models.LevelFolder:
		return find(n.folders, id, func(f models.Folder) string { return f.ID }) != nil
	}
	return false
}

// setSelection assumes resolves(level, id) is true.
func (n *Navigator) setSelection(level models.Level, id string) {
	switch level {
	case models.LevelDepartment:
		n.department = find(n.departments, id, func(d models.Department) string { return d.ID })
	case models.LevelBatch:
		n.batch = find(n.batches, id, func(b models.Batch) string { return b.ID })
	case models.LevelSemester:
		n.semester = find(n.semesters, id, func(s models.Semester) string { return s.ID })
	case models.LevelSubject:
		n.subject = find(n.subjects, id, func(s models.Subject) string { return s.ID })
	case models.LevelFolder:
		n.folder = find(n.folders, id, func(f models.Folder) string { return f.ID })
	}
}

// scopeFor builds the folder/note scope for subject id under the current chain.
func (n *Navigator) scopeFor(subjectID string) models.Scope {
	scope := models.Scope{SubjectID: subjectID}
	if n.department != nil {
		scope.DepartmentID = n.department.ID
	}
	if n.batch != nil {
		scope.BatchID = n.batch.ID
	}
	if n.semester != nil {
		scope.SemesterID = n.semester.ID
	}
	return scope
}

func (n *Navigator) params() url.Values {
	v := url.Values{}
	for _, level := range models.Levels {
		id := n.selectedID(level)
		if id == "" {
			break
		}
		v.Set(level.Param(), id)
	}
	return v
}

func encodeOrdered(v url.Values) string {
	var b strings.Builder
	for _, level := range models.Levels {
		id := v.Get(level.Param())
		if id == "" {
			break
		}
		if b.Len() > 0 {
			b.WriteByte('&')
		}
		b.WriteString(level.Param())
		b.WriteByte('=')
		b.WriteString(url.QueryEscape(id))
	}
	return b.String()
}

// find returns a copy of the element with the given id.
func find[T any](list []T, id string, key func(T) string) *T {
	for i := range list {
		if key(list[i]) == id {
			v := list[i]
			return &v
		}
	}
	return nil
}

// withGeneral appends the synthetic general subject unless the catalog
// already did.
func withGeneral(subjects []models.Subject, semesterID string) []models.Subject {
	for _, s := range subjects {
		if s.IsGeneral() {
			return subjects
		}
	}
	return append(subjects, models.GeneralSubject(semesterID))
}
