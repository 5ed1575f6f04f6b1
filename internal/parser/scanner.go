package parser

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"migscan/internal/common"
	"migscan/internal/model"
)

// Scanner walks one repository tree, parses every recognized file, and
// assembles the results into processes.
type Scanner struct {
	parsers  []Parser
	keywords map[string][]string
}

func NewScanner(businessKeywords map[string][]string) *Scanner {
	return &Scanner{parsers: defaultParsers(), keywords: businessKeywords}
}

// ScanRepo parses every recognized file under root and returns the
// processes for the given system tag. Files that fail to parse are logged
// and skipped; only the walk itself can fail the scan.
func (s *Scanner) ScanRepo(ctx context.Context, root, system string) ([]model.Process, error) {
	logger := common.Logger()
	var workflows []*Workflow
	var scripts []*Script
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if skipDir(d.Name()) {
				return filepath.SkipDir
			}
			return nil
		}
		data, readErr := os.ReadFile(path)
		if readErr != nil {
			logger.Warn("scan: read failed", "path", path, "error", readErr)
			return nil
		}
		for _, p := range s.parsers {
			if !p.Match(path, data) {
				continue
			}
			result, parseErr := p.Parse(ctx, path, data)
			if parseErr != nil {
				logger.Warn("scan: parse failed", "parser", p.Name(), "path", path, "error", parseErr)
				break
			}
			if result.Workflow != nil {
				workflows = append(workflows, result.Workflow)
			}
			if result.Script != nil {
				scripts = append(scripts, result.Script)
			}
			break
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	processes := s.assemble(workflows, scripts, system)
	logger.Info("scan complete", "root", root, "system", system,
		"workflows", len(workflows), "scripts", len(scripts), "processes", len(processes))
	return processes, nil
}

func skipDir(name string) bool {
	if strings.HasPrefix(name, ".") && name != "." {
		return true
	}
	switch name {
	case "node_modules", "target", "build", "__pycache__", "venv":
		return true
	}
	return false
}

// assemble links workflow actions to the scripts they reference, attaches
// coordinator schedules, and accounts for every leftover script.
func (s *Scanner) assemble(workflows []*Workflow, scripts []*Script, system string) []model.Process {
	index := indexScripts(scripts)
	referenced := make(map[string]bool)

	var definitions []*Workflow
	schedules := make(map[string]model.Schedule)
	for _, wf := range workflows {
		if wf.Coordinator {
			key := strings.ToLower(stemOf(wf.WorkflowRef))
			if key != "" {
				schedules[key] = wf.Schedule
			}
			continue
		}
		definitions = append(definitions, wf)
	}

	var processes []model.Process
	for _, wf := range definitions {
		proc := model.Process{
			Name:       wf.Name,
			System:     system,
			SourcePath: wf.Path,
			Schedule:   wf.Schedule,
			Referenced: true,
		}
		if sched, ok := schedules[strings.ToLower(stemOf(wf.Path))]; ok {
			proc.Schedule = sched
		} else if sched, ok := schedules[strings.ToLower(wf.Name)]; ok {
			proc.Schedule = sched
		}
		for i, action := range wf.Actions {
			comp := model.Component{
				Name:    action.Name,
				Type:    action.Type,
				Dialect: action.Dialect,
				Ordinal: i,
			}
			if script := index.resolve(action.ScriptPath); script != nil {
				referenced[script.Path] = true
				comp.Inputs = append([]string(nil), script.Inputs...)
				comp.Outputs = append([]string(nil), script.Outputs...)
				comp.Transformation = script.Transformation
				comp.Description = firstComment(script.Comments)
				comp.Excerpt = capExcerpt(script.Content)
				if comp.Type != model.ComponentControl {
					comp.Type = script.Type
				}
			}
			proc.Components = append(proc.Components, comp)
		}
		finishProcess(&proc, s.keywords)
		processes = append(processes, proc)
	}

	var leftovers []*Script
	for _, script := range scripts {
		if !referenced[script.Path] {
			leftovers = append(leftovers, script)
		}
	}
	if len(definitions) == 0 {
		processes = append(processes, groupByDirectory(leftovers, system, s.keywords)...)
	} else {
		for _, script := range leftovers {
			proc := scriptProcess(script, system, false)
			finishProcess(&proc, s.keywords)
			processes = append(processes, proc)
		}
	}
	sort.SliceStable(processes, func(i, j int) bool { return processes[i].Name < processes[j].Name })
	return processes
}

type scriptIndex struct {
	byBase map[string]*Script
	byStem map[string]*Script
}

func indexScripts(scripts []*Script) scriptIndex {
	idx := scriptIndex{
		byBase: make(map[string]*Script, len(scripts)),
		byStem: make(map[string]*Script, len(scripts)),
	}
	for _, script := range scripts {
		base := strings.ToLower(filepath.Base(script.Path))
		if _, ok := idx.byBase[base]; !ok {
			idx.byBase[base] = script
		}
		stem := strings.ToLower(stemOf(script.Path))
		if _, ok := idx.byStem[stem]; !ok {
			idx.byStem[stem] = script
		}
	}
	return idx
}

// resolve matches an action's script reference against indexed scripts by
// basename first, then by stem. References are paths on the cluster, so
// only the final segment is comparable.
func (idx scriptIndex) resolve(ref string) *Script {
	trimmed := strings.TrimSpace(ref)
	if trimmed == "" {
		return nil
	}
	base := strings.ToLower(filepath.Base(trimmed))
	if script, ok := idx.byBase[base]; ok {
		return script
	}
	if script, ok := idx.byStem[strings.TrimSuffix(base, filepath.Ext(base))]; ok {
		return script
	}
	return nil
}

// groupByDirectory forms one process per parent directory when the repo
// has no orchestration definitions at all, which is how notebook-only
// repositories are typically laid out.
func groupByDirectory(scripts []*Script, system string, keywords map[string][]string) []model.Process {
	groups := make(map[string][]*Script)
	var order []string
	for _, script := range scripts {
		dir := filepath.Base(filepath.Dir(script.Path))
		if dir == "." || dir == "/" || dir == "" {
			dir = stemOf(script.Path)
		}
		if _, ok := groups[dir]; !ok {
			order = append(order, dir)
		}
		groups[dir] = append(groups[dir], script)
	}
	var processes []model.Process
	for _, dir := range order {
		members := groups[dir]
		if len(members) == 1 {
			proc := scriptProcess(members[0], system, true)
			proc.Name = dir
			finishProcess(&proc, keywords)
			processes = append(processes, proc)
			continue
		}
		proc := model.Process{
			Name:       dir,
			System:     system,
			SourcePath: filepath.Dir(members[0].Path),
			Referenced: true,
		}
		for i, script := range members {
			proc.Components = append(proc.Components, model.Component{
				Name:           script.Name,
				Type:           script.Type,
				Dialect:        script.Dialect,
				Ordinal:        i,
				Inputs:         append([]string(nil), script.Inputs...),
				Outputs:        append([]string(nil), script.Outputs...),
				Transformation: script.Transformation,
				Description:    firstComment(script.Comments),
				Excerpt:        capExcerpt(script.Content),
			})
		}
		finishProcess(&proc, keywords)
		processes = append(processes, proc)
	}
	return processes
}

func scriptProcess(script *Script, system string, referenced bool) model.Process {
	return model.Process{
		Name:       script.Name,
		System:     system,
		SourcePath: script.Path,
		Referenced: referenced,
		Components: []model.Component{{
			Name:           script.Name,
			Type:           script.Type,
			Dialect:        script.Dialect,
			Ordinal:        0,
			Inputs:         append([]string(nil), script.Inputs...),
			Outputs:        append([]string(nil), script.Outputs...),
			Transformation: script.Transformation,
			Description:    firstComment(script.Comments),
			Excerpt:        capExcerpt(script.Content),
		}},
	}
}

// finishProcess derives the process-level table set and keyword tags from
// its components.
func finishProcess(proc *model.Process, keywords map[string][]string) {
	tables := make(map[string]bool)
	var text strings.Builder
	text.WriteString(strings.ToLower(proc.Name))
	for _, comp := range proc.Components {
		for _, t := range comp.Inputs {
			if norm := model.NormalizeTable(t); norm != "" {
				tables[norm] = true
			}
		}
		for _, t := range comp.Outputs {
			if norm := model.NormalizeTable(t); norm != "" {
				tables[norm] = true
			}
		}
		text.WriteString(" ")
		text.WriteString(strings.ToLower(comp.Name))
		text.WriteString(" ")
		text.WriteString(strings.ToLower(comp.Transformation))
		text.WriteString(" ")
		text.WriteString(strings.ToLower(comp.Description))
	}
	for table := range tables {
		text.WriteString(" ")
		text.WriteString(table)
	}
	proc.Tables = model.SortedKeys(tables)
	proc.Keywords = tagKeywords(text.String(), keywords)
}

// tagKeywords returns the sorted business-function families whose
// indicator substrings appear in the text.
func tagKeywords(text string, keywords map[string][]string) []string {
	var families []string
	for family, indicators := range keywords {
		for _, indicator := range indicators {
			if strings.Contains(text, indicator) {
				families = append(families, family)
				break
			}
		}
	}
	sort.Strings(families)
	return families
}

// maxExcerpt bounds how much script text rides along on a component;
// enough for field-level analysis without dragging whole files around.
const maxExcerpt = 6000

func capExcerpt(content string) string {
	if len(content) <= maxExcerpt {
		return content
	}
	return content[:maxExcerpt]
}

func firstComment(comments []string) string {
	if len(comments) == 0 {
		return ""
	}
	return comments[0]
}
