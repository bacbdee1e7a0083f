package main

import (
	"bufio"
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	resume "github.com/goliatone/go-resume"
	"github.com/goliatone/go-resume/pkg/preview"
	"github.com/goliatone/go-resume/pkg/render"
)

type command struct {
	usage string
	run   func(s *session, args []string) error
}

type usageError struct {
	msg string
}

func (e usageError) Error() string { return "usage: " + e.msg }

var commands map[string]command

func init() {
	commands = map[string]command{
		"show":           {"print the present document as JSON", cmdShow},
		"history":        {"print undo/redo depth", cmdHistory},
		"set-name":       {"<name...>", cmdSetName},
		"set-summary":    {"<text...>", cmdSetSummary},
		"set-contact":    {"<key> <value>", cmdSetContact},
		"add-section":    {"[title...]", cmdAddSection},
		"remove-section": {"<section>", cmdRemoveSection},
		"rename-section": {"<section> <title...>", cmdRenameSection},
		"move-sections":  {"<section...> (new order)", cmdMoveSections},
		"add-item":       {"<section>", cmdAddItem},
		"remove-item":    {"<section> <item>", cmdRemoveItem},
		"set-item":       {"<section> <item> [--label1 v] [--label2 v] [--label3 v] [--notes v] [--bullet v]...", cmdSetItem},
		"move-items":     {"<section> <item...> (new order)", cmdMoveItems},
		"add-bullet":     {"<section> <item>", cmdAddBullet},
		"set-bullet":     {"<section> <item> <index> <text...>", cmdSetBullet},
		"remove-bullet":  {"<section> <item> <index>", cmdRemoveBullet},
		"color":          {"<slot> <#hex>", cmdColor},
		"reset-colors":   {"restore the stock palette", cmdResetColors},
		"font":           {"<slot> <px>", cmdFont},
		"layout":         {"one-column|two-column", cmdLayout},
		"page":           {"[--unlocked] <width> [height] (mm)", cmdPage},
		"preset":         {"<name>", cmdPreset},
		"presets":        {"list page presets", cmdPresets},
		"preview-pdf":    {"on|off", cmdPreviewPDF},
		"undo":           {"step back one edit", cmdUndo},
		"redo":           {"step forward one edit", cmdRedo},
		"reset":          {"install the default document and clear history", cmdReset},
		"clear-history":  {"drop undo and redo steps, keep the document", cmdClearHistory},
		"import":         {"<file.json>", cmdImport},
		"export-json":    {"[--legacy] [file]", cmdExportJSON},
		"export-pdf":     {"[--strict] [--font family] <file.pdf>", cmdExportPDF},
		"check":          {"[--engine expr|cel|js]", cmdCheck},
		"schema":         {"print the JSON Schema of exported documents", cmdSchema},
		"watch":          {"<file.pdf> (read commands from stdin, re-render after each quiet period)", cmdWatch},
	}
}

func commandNames() []string {
	names := make([]string, 0, len(commands))
	for name := range commands {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func need(args []string, n int, name string) error {
	if len(args) < n {
		return usageError{msg: name + " " + commands[name].usage}
	}
	return nil
}

func parseIndex(raw string) (int, error) {
	index, err := strconv.Atoi(raw)
	if err != nil {
		return 0, usageError{msg: fmt.Sprintf("index %q is not a number", raw)}
	}
	return index, nil
}

func cmdShow(s *session, _ []string) error {
	data, err := s.history.ExportJSON()
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(s.out, string(data))
	return err
}

func cmdHistory(s *session, _ []string) error {
	st := s.history.State()
	_, err := fmt.Fprintf(s.out, "past: %d future: %d limit: %d can-undo: %t can-redo: %t\n",
		len(st.Past), len(st.Future), s.history.Limit(), st.CanUndo, st.CanRedo)
	return err
}

func cmdSetName(s *session, args []string) error {
	name := strings.Join(args, " ")
	s.history.UpdateContent(resume.ContentPatch{Name: &name})
	return nil
}

func cmdSetSummary(s *session, args []string) error {
	summary := strings.Join(args, " ")
	s.history.UpdateContent(resume.ContentPatch{Summary: &summary})
	return nil
}

func cmdSetContact(s *session, args []string) error {
	if err := need(args, 2, "set-contact"); err != nil {
		return err
	}
	s.history.UpdateContent(resume.ContentPatch{Contact: map[string]any{args[0]: strings.Join(args[1:], " ")}})
	return nil
}

func cmdAddSection(s *session, args []string) error {
	id := s.history.AddSection(strings.Join(args, " "))
	_, err := fmt.Fprintln(s.out, id)
	return err
}

func cmdRemoveSection(s *session, args []string) error {
	if err := need(args, 1, "remove-section"); err != nil {
		return err
	}
	s.history.RemoveSection(args[0])
	return nil
}

func cmdRenameSection(s *session, args []string) error {
	if err := need(args, 2, "rename-section"); err != nil {
		return err
	}
	s.history.UpdateSectionTitle(args[0], strings.Join(args[1:], " "))
	return nil
}

func cmdMoveSections(s *session, args []string) error {
	if err := need(args, 1, "move-sections"); err != nil {
		return err
	}
	s.history.ReorderSections(args)
	return nil
}

func cmdAddItem(s *session, args []string) error {
	if err := need(args, 1, "add-item"); err != nil {
		return err
	}
	id := s.history.AddItem(args[0])
	if id == "" {
		return fmt.Errorf("section %q not found", args[0])
	}
	_, err := fmt.Fprintln(s.out, id)
	return err
}

func cmdRemoveItem(s *session, args []string) error {
	if err := need(args, 2, "remove-item"); err != nil {
		return err
	}
	s.history.RemoveItem(args[0], args[1])
	return nil
}

func cmdSetItem(s *session, args []string) error {
	if err := need(args, 2, "set-item"); err != nil {
		return err
	}
	fs := flag.NewFlagSet("set-item", flag.ContinueOnError)
	label1 := fs.String("label1", "", "primary heading")
	label2 := fs.String("label2", "", "sub-heading")
	label3 := fs.String("label3", "", "date or meta line")
	notes := fs.String("notes", "", "free text")
	var bullets []string
	fs.Func("bullet", "bullet line (repeatable, replaces all bullets)", func(v string) error {
		bullets = append(bullets, v)
		return nil
	})
	if err := fs.Parse(args[2:]); err != nil {
		return usageError{msg: err.Error()}
	}

	var patch resume.ItemPatch
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "label1":
			patch.Label1 = label1
		case "label2":
			patch.Label2 = label2
		case "label3":
			patch.Label3 = label3
		case "notes":
			patch.Notes = notes
		case "bullet":
			patch.Bullets = bullets
		}
	})
	s.history.UpdateItem(args[0], args[1], patch)
	return nil
}

func cmdMoveItems(s *session, args []string) error {
	if err := need(args, 2, "move-items"); err != nil {
		return err
	}
	s.history.ReorderItems(args[0], args[1:])
	return nil
}

func cmdAddBullet(s *session, args []string) error {
	if err := need(args, 2, "add-bullet"); err != nil {
		return err
	}
	s.history.AddBullet(args[0], args[1])
	return nil
}

func cmdSetBullet(s *session, args []string) error {
	if err := need(args, 4, "set-bullet"); err != nil {
		return err
	}
	index, err := parseIndex(args[2])
	if err != nil {
		return err
	}
	s.history.UpdateBullet(args[0], args[1], index, strings.Join(args[3:], " "))
	return nil
}

func cmdRemoveBullet(s *session, args []string) error {
	if err := need(args, 3, "remove-bullet"); err != nil {
		return err
	}
	index, err := parseIndex(args[2])
	if err != nil {
		return err
	}
	s.history.RemoveBullet(args[0], args[1], index)
	return nil
}

func cmdColor(s *session, args []string) error {
	if err := need(args, 2, "color"); err != nil {
		return err
	}
	if _, _, _, ok := render.ParseHexColor(args[1]); !ok {
		return usageError{msg: fmt.Sprintf("color %q is not a hex color", args[1])}
	}
	s.history.UpdateColor(args[0], args[1])
	return nil
}

func cmdResetColors(s *session, _ []string) error {
	s.history.ResetColors()
	return nil
}

func cmdFont(s *session, args []string) error {
	if err := need(args, 2, "font"); err != nil {
		return err
	}
	size, err := strconv.ParseFloat(args[1], 64)
	if err != nil || size <= 0 {
		return usageError{msg: fmt.Sprintf("font size %q must be a positive number", args[1])}
	}
	s.history.UpdateFonts(map[string]any{args[0]: size})
	return nil
}

func cmdLayout(s *session, args []string) error {
	if err := need(args, 1, "layout"); err != nil {
		return err
	}
	layout := resume.Layout(args[0])
	if !layout.Valid() {
		return usageError{msg: "layout " + commands["layout"].usage}
	}
	s.history.UpdateLayout(layout)
	return nil
}

func cmdPage(s *session, args []string) error {
	fs := flag.NewFlagSet("page", flag.ContinueOnError)
	unlocked := fs.Bool("unlocked", false, "do not keep the aspect ratio when only width is given")
	if err := fs.Parse(args); err != nil {
		return usageError{msg: err.Error()}
	}
	rest := fs.Args()
	if err := need(rest, 1, "page"); err != nil {
		return err
	}
	width, err := strconv.ParseFloat(rest[0], 64)
	if err != nil {
		return usageError{msg: fmt.Sprintf("width %q is not a number", rest[0])}
	}

	page := resume.ResizeWidth(s.history.Present().Page, width, !*unlocked)
	if len(rest) > 1 {
		height, err := strconv.ParseFloat(rest[1], 64)
		if err != nil {
			return usageError{msg: fmt.Sprintf("height %q is not a number", rest[1])}
		}
		page.Height = resume.ClampPageDimension(height)
	}
	s.history.UpdatePage(resume.PagePatch{Width: &page.Width, Height: &page.Height})
	_, err = fmt.Fprintf(s.out, "%.2f x %.2f mm (%s)\n", page.Width, page.Height, resume.FindPreset(page))
	return err
}

func cmdPreset(s *session, args []string) error {
	if err := need(args, 1, "preset"); err != nil {
		return err
	}
	if !s.history.ApplyPagePreset(args[0]) {
		return fmt.Errorf("unknown preset %q (see resumectl presets)", args[0])
	}
	return nil
}

func cmdPresets(s *session, _ []string) error {
	current := resume.FindPreset(s.history.Present().Page)
	for _, preset := range resume.PagePresets {
		marker := " "
		if preset.Name == current {
			marker = "*"
		}
		if _, err := fmt.Fprintf(s.out, "%s %-10s %6.1f x %6.1f mm\n", marker, preset.Name, preset.Page.Width, preset.Page.Height); err != nil {
			return err
		}
	}
	return nil
}

func cmdPreviewPDF(s *session, args []string) error {
	if err := need(args, 1, "preview-pdf"); err != nil {
		return err
	}
	switch args[0] {
	case "on", "true", "1":
		s.history.UpdatePreviewRenderPDF(true)
	case "off", "false", "0":
		s.history.UpdatePreviewRenderPDF(false)
	default:
		return usageError{msg: "preview-pdf on|off"}
	}
	return nil
}

func cmdUndo(s *session, _ []string) error {
	if !s.history.CanUndo() {
		_, err := fmt.Fprintln(s.out, "nothing to undo")
		return err
	}
	s.history.Undo()
	return nil
}

func cmdRedo(s *session, _ []string) error {
	if !s.history.CanRedo() {
		_, err := fmt.Fprintln(s.out, "nothing to redo")
		return err
	}
	s.history.Redo()
	return nil
}

func cmdReset(s *session, _ []string) error {
	s.history.Reset()
	return nil
}

func cmdClearHistory(s *session, _ []string) error {
	s.history.ClearHistory()
	return nil
}

func cmdImport(s *session, args []string) error {
	if err := need(args, 1, "import"); err != nil {
		return err
	}
	data, err := os.ReadFile(args[0])
	if err != nil {
		return err
	}
	return s.history.ImportJSON(data)
}

func cmdExportJSON(s *session, args []string) error {
	fs := flag.NewFlagSet("export-json", flag.ContinueOnError)
	legacy := fs.Bool("legacy", false, "write the layout of the original browser editor")
	if err := fs.Parse(args); err != nil {
		return usageError{msg: err.Error()}
	}
	args = fs.Args()

	export := s.history.ExportJSON
	if *legacy {
		export = s.history.ExportLegacyJSON
	}
	data, err := export()
	if err != nil {
		return err
	}
	if len(args) == 0 {
		_, err = fmt.Fprintln(s.out, string(data))
		return err
	}
	return os.WriteFile(args[0], data, 0o644)
}

func cmdExportPDF(s *session, args []string) error {
	fs := flag.NewFlagSet("export-pdf", flag.ContinueOnError)
	strict := fs.Bool("strict", false, "refuse to export when preflight checks fail")
	family := fs.String("font", "", "core font family (Helvetica, Times, Courier)")
	if err := fs.Parse(args); err != nil {
		return usageError{msg: err.Error()}
	}
	if err := need(fs.Args(), 1, "export-pdf"); err != nil {
		return err
	}
	if *strict {
		if err := s.preflight(s.cfg.Rules.Engine); err != nil {
			return err
		}
	}

	return writePDF(fs.Args()[0], s.history.Present(), *family)
}

func writePDF(path string, doc resume.Document, family string) error {
	var buf bytes.Buffer
	if err := render.PDF(&buf, doc, render.WithFontFamily(family)); err != nil {
		return err
	}
	return os.WriteFile(path, buf.Bytes(), 0o644)
}

func cmdWatch(s *session, args []string) error {
	if err := need(args, 1, "watch"); err != nil {
		return err
	}
	path := args[0]
	delay := time.Duration(s.cfg.Preview.DelayMS) * time.Millisecond

	var renderMu sync.Mutex
	paint := func(doc resume.Document) error {
		renderMu.Lock()
		defer renderMu.Unlock()
		return writePDF(path, doc, "")
	}

	stop := preview.Watch(s.history, delay, func(doc resume.Document) {
		if err := paint(doc); err != nil {
			s.logger.Warn("preview render failed", slog.String("path", path), slog.Any("error", err))
			return
		}
		s.logger.Debug("preview rendered", slog.String("path", path))
	})

	scanner := bufio.NewScanner(s.in)
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 || strings.HasPrefix(fields[0], "#") {
			continue
		}
		name := fields[0]
		if name == "quit" || name == "exit" {
			break
		}
		cmd, ok := commands[name]
		if !ok || name == "watch" {
			fmt.Fprintf(s.out, "unknown command %q\n", name)
			continue
		}
		if err := cmd.run(s, fields[1:]); err != nil {
			fmt.Fprintln(s.out, err)
		}
	}
	stop()
	if err := scanner.Err(); err != nil {
		return err
	}
	return paint(s.history.Present())
}

func cmdSchema(s *session, _ []string) error {
	doc, err := resume.DocumentSchema()
	if err != nil {
		return err
	}
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(s.out, string(data))
	return err
}

func cmdCheck(s *session, args []string) error {
	fs := flag.NewFlagSet("check", flag.ContinueOnError)
	engine := fs.String("engine", s.cfg.Rules.Engine, "expr|cel|js")
	if err := fs.Parse(args); err != nil {
		return usageError{msg: err.Error()}
	}
	return s.preflight(*engine)
}

func (s *session) preflight(engine string) error {
	evaluator, err := resume.NewPreflightEvaluator(engine)
	if err != nil {
		return err
	}
	report, err := s.history.Preflight(evaluator)
	if err != nil {
		return err
	}
	for _, finding := range report.Findings {
		status := "ok  "
		if !finding.Passed {
			status = "FAIL"
		}
		line := fmt.Sprintf("%s %-16s %s", status, finding.Check, finding.Severity)
		if !finding.Passed {
			line += "  " + finding.Message
			if finding.Err != nil {
				line += " (" + finding.Err.Error() + ")"
			}
		}
		fmt.Fprintln(s.out, line)
	}
	if !report.OK() {
		return fmt.Errorf("preflight failed with the %s engine", report.Engine)
	}
	return nil
}
