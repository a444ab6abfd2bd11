// Package shell is the interactive mixer console.
package shell

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"whisperli/app"
	"whisperli/core/catalog"
	"whisperli/core/mixer"
	"whisperli/core/session"
	"whisperli/model"

	"github.com/chzyer/readline"
)

var errUsage = errors.New("usage")

// Shell runs text commands against one App.
type Shell struct {
	app *app.App
	out io.Writer
}

func New(a *app.App, out io.Writer) *Shell {
	return &Shell{app: a, out: out}
}

type command struct {
	usage string
	run   func(s *Shell, ctx context.Context, args []string) error
}

var commands map[string]command

func init() {
	commands = map[string]command{
		"help":     {"help", (*Shell).help},
		"sounds":   {"sounds [category]", (*Shell).sounds},
		"list":     {"list", (*Shell).list},
		"add":      {"add <sound>", (*Shell).add},
		"remove":   {"remove <track>", (*Shell).remove},
		"toggle":   {"toggle <track>", (*Shell).toggle},
		"vol":      {"vol <track> <0-100>", (*Shell).volume},
		"loop":     {"loop <track> on|off", (*Shell).loop},
		"auto":     {"auto <track> on|off", (*Shell).volumeAuto},
		"speed":    {"speed <track> slow|medium|fast", (*Shell).speed},
		"replay":   {"replay <track> on|off", (*Shell).replay},
		"interval": {"interval <track> <1-120> [fixed|random]", (*Shell).interval},
		"playall":  {"playall", (*Shell).playAll},
		"clear":    {"clear", (*Shell).clear},
		"save":     {"save <session>", (*Shell).save},
		"load":     {"load <session>", (*Shell).load},
		"sessions": {"sessions", (*Shell).sessions},
		"delete":   {"delete <session>", (*Shell).deleteSession},
	}
}

func (s *Shell) completer() readline.AutoCompleter {
	var items []readline.PrefixCompleterInterface
	for _, name := range sortedCommands() {
		items = append(items, readline.PcItem(name))
	}
	items = append(items, readline.PcItem("quit"))
	return readline.NewPrefixCompleter(items...)
}

// Run reads commands until quit, EOF or interrupt.
func (s *Shell) Run(ctx context.Context, historyFile string) error {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "whisperli> ",
		HistoryFile:     historyFile,
		AutoComplete:    s.completer(),
		InterruptPrompt: "^C",
		EOFPrompt:       "quit",
	})
	if err != nil {
		return fmt.Errorf("init readline: %w", err)
	}
	defer rl.Close()
	s.out = rl.Stdout()

	for {
		line, err := rl.Readline()
		if err == readline.ErrInterrupt || err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
		if !s.Exec(ctx, line) {
			return nil
		}
	}
}

// Exec runs one command line and reports whether the shell should go on.
func (s *Shell) Exec(ctx context.Context, line string) bool {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return true
	}
	name, args := strings.ToLower(fields[0]), fields[1:]
	if name == "quit" || name == "exit" {
		return false
	}
	cmd, ok := commands[name]
	if !ok {
		fmt.Fprintf(s.out, "unknown command %q, try help\n", name)
		return true
	}
	if err := cmd.run(s, ctx, args); err != nil {
		if errors.Is(err, errUsage) {
			fmt.Fprintf(s.out, "usage: %s\n", cmd.usage)
		} else {
			fmt.Fprintf(s.out, "error: %v\n", err)
		}
	}
	return true
}

func sortedCommands() []string {
	names := make([]string, 0, len(commands))
	for name := range commands {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (s *Shell) help(ctx context.Context, args []string) error {
	for _, name := range sortedCommands() {
		fmt.Fprintf(s.out, "  %s\n", commands[name].usage)
	}
	fmt.Fprintln(s.out, "  quit")
	return nil
}

func (s *Shell) sounds(ctx context.Context, args []string) error {
	c := s.app.Catalog
	if len(args) == 0 {
		for _, cat := range c.Categories() {
			fmt.Fprintf(s.out, "%s (%d)\n", cat, len(c.Sounds(cat)))
		}
		return nil
	}
	cat := strings.Join(args, " ")
	sounds := c.Sounds(cat)
	if sounds == nil {
		return fmt.Errorf("no category %q", cat)
	}
	for _, ref := range sounds {
		fmt.Fprintf(s.out, "  %s\n", catalog.Name(ref))
	}
	return nil
}

func (s *Shell) list(ctx context.Context, args []string) error {
	var statuses []mixer.Status
	if err := s.app.Do(ctx, func(m *mixer.Mixer) { statuses = m.Statuses() }); err != nil {
		return err
	}
	if len(statuses) == 0 {
		fmt.Fprintln(s.out, "mixer is empty")
		return nil
	}
	for _, st := range statuses {
		fmt.Fprintln(s.out, formatStatus(st))
	}
	return nil
}

func formatStatus(st mixer.Status) string {
	state := "paused"
	if st.Playing {
		state = "playing"
	}
	var flags []string
	if st.Loop {
		flags = append(flags, "loop")
	}
	if st.VolumeAuto {
		flags = append(flags, "auto:"+st.Speed.String())
	}
	if st.PlaybackAuto {
		flags = append(flags, fmt.Sprintf("replay:%ds/%s", st.Interval, st.IntervalType))
	}
	return fmt.Sprintf("%-20s %3d%% %-7s %s", catalog.Name(st.SoundFile), st.Volume, state, strings.Join(flags, " "))
}

// resolveSound finds a catalog sound by path or by display name.
func (s *Shell) resolveSound(name string) (string, bool) {
	if filepath.IsAbs(name) || strings.ContainsRune(name, os.PathSeparator) {
		return name, s.app.Catalog.Exists(name)
	}
	for _, cat := range s.app.Catalog.Categories() {
		for _, ref := range s.app.Catalog.Sounds(cat) {
			if strings.EqualFold(catalog.Name(ref), name) {
				return ref, true
			}
		}
	}
	return "", false
}

func (s *Shell) add(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return errUsage
	}
	ref, ok := s.resolveSound(strings.Join(args, " "))
	if !ok {
		return mixer.ErrAssetMissing
	}
	var addErr error
	if err := s.app.Do(ctx, func(m *mixer.Mixer) { _, addErr = m.Add(ref) }); err != nil {
		return err
	}
	if addErr != nil {
		return addErr
	}
	fmt.Fprintf(s.out, "added %s\n", catalog.Name(ref))
	return nil
}

// withTrack runs f on the track whose name or path is name.
func (s *Shell) withTrack(ctx context.Context, name string, f func(m *mixer.Mixer, t *mixer.Track)) error {
	found := false
	err := s.app.Do(ctx, func(m *mixer.Mixer) {
		for _, t := range m.Tracks() {
			if t.Ref() == name || strings.EqualFold(catalog.Name(t.Ref()), name) {
				found = true
				f(m, t)
				return
			}
		}
	})
	if err != nil {
		return err
	}
	if !found {
		return fmt.Errorf("%w: %s", mixer.ErrTrackNotFound, name)
	}
	return nil
}

// trackAndValue splits "<track name...> <value>".
func trackAndValue(args []string) (string, string, error) {
	if len(args) < 2 {
		return "", "", errUsage
	}
	return strings.Join(args[:len(args)-1], " "), args[len(args)-1], nil
}

func parseSwitch(v string) (bool, error) {
	switch strings.ToLower(v) {
	case "on", "true", "yes", "1":
		return true, nil
	case "off", "false", "no", "0":
		return false, nil
	}
	return false, errUsage
}

func (s *Shell) printTrack(t *mixer.Track) {
	fmt.Fprintln(s.out, formatStatus(mixer.Status{TrackState: t.State(), Playing: t.Playing()}))
}

func (s *Shell) remove(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return errUsage
	}
	var removeErr error
	err := s.withTrack(ctx, strings.Join(args, " "), func(m *mixer.Mixer, t *mixer.Track) {
		removeErr = m.Remove(t.Ref())
	})
	if err != nil {
		return err
	}
	return removeErr
}

func (s *Shell) toggle(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return errUsage
	}
	return s.withTrack(ctx, strings.Join(args, " "), func(m *mixer.Mixer, t *mixer.Track) {
		t.TogglePlayback()
		s.printTrack(t)
	})
}

func (s *Shell) volume(ctx context.Context, args []string) error {
	name, raw, err := trackAndValue(args)
	if err != nil {
		return err
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return errUsage
	}
	return s.withTrack(ctx, name, func(m *mixer.Mixer, t *mixer.Track) {
		t.SetVolume(v)
		s.printTrack(t)
	})
}

// switchCommand builds the on|off commands.
func (s *Shell) switchCommand(ctx context.Context, args []string, set func(t *mixer.Track, on bool)) error {
	name, raw, err := trackAndValue(args)
	if err != nil {
		return err
	}
	on, err := parseSwitch(raw)
	if err != nil {
		return err
	}
	return s.withTrack(ctx, name, func(m *mixer.Mixer, t *mixer.Track) {
		set(t, on)
		s.printTrack(t)
	})
}

func (s *Shell) loop(ctx context.Context, args []string) error {
	return s.switchCommand(ctx, args, (*mixer.Track).SetLoop)
}

func (s *Shell) volumeAuto(ctx context.Context, args []string) error {
	return s.switchCommand(ctx, args, (*mixer.Track).SetVolumeAutomation)
}

func (s *Shell) replay(ctx context.Context, args []string) error {
	return s.switchCommand(ctx, args, (*mixer.Track).SetPlaybackAutomation)
}

func (s *Shell) speed(ctx context.Context, args []string) error {
	name, raw, err := trackAndValue(args)
	if err != nil {
		return err
	}
	tier, ok := model.ParseSpeedTier(strings.ToLower(raw))
	if !ok {
		return errUsage
	}
	return s.withTrack(ctx, name, func(m *mixer.Mixer, t *mixer.Track) {
		t.SetSpeedTier(tier)
		s.printTrack(t)
	})
}

func (s *Shell) interval(ctx context.Context, args []string) error {
	if len(args) < 2 {
		return errUsage
	}
	// numeric mode codes would be ambiguous with the seconds
	last := strings.ToLower(args[len(args)-1])
	var mode model.IntervalMode
	hasMode := last == "fixed" || last == "random"
	if hasMode {
		mode, _ = model.ParseIntervalMode(last)
		args = args[:len(args)-1]
	}
	name, raw, err := trackAndValue(args)
	if err != nil {
		return err
	}
	seconds, err := strconv.Atoi(raw)
	if err != nil {
		return errUsage
	}
	return s.withTrack(ctx, name, func(m *mixer.Mixer, t *mixer.Track) {
		t.SetInterval(seconds)
		if hasMode {
			t.SetIntervalMode(mode)
		}
		s.printTrack(t)
	})
}

func (s *Shell) playAll(ctx context.Context, args []string) error {
	var n int
	if err := s.app.Do(ctx, func(m *mixer.Mixer) { n = m.PlayAll() }); err != nil {
		return err
	}
	fmt.Fprintf(s.out, "started %d tracks\n", n)
	return nil
}

func (s *Shell) clear(ctx context.Context, args []string) error {
	var n int
	if err := s.app.Do(ctx, func(m *mixer.Mixer) { n = m.Clear() }); err != nil {
		return err
	}
	fmt.Fprintf(s.out, "removed %d tracks\n", n)
	return nil
}

func (s *Shell) save(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return errUsage
	}
	sess, err := s.app.SaveSession(ctx, strings.Join(args, " "), model.Metadata{})
	if err != nil {
		return err
	}
	fmt.Fprintf(s.out, "saved %s (%d tracks)\n", sess.Metadata.Name, len(sess.Tracks))
	return nil
}

func (s *Shell) load(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return errUsage
	}
	report, err := s.app.LoadSession(ctx, strings.Join(args, " "))
	if err != nil {
		return err
	}
	fmt.Fprintf(s.out, "loaded %d tracks, skipped %d\n", report.Loaded, report.Skipped)
	return nil
}

func (s *Shell) sessions(ctx context.Context, args []string) error {
	names, err := s.app.Sessions.List(ctx)
	if err != nil {
		return err
	}
	if len(names) == 0 {
		fmt.Fprintln(s.out, "no saved sessions")
		return nil
	}
	for _, name := range names {
		info, err := s.app.Sessions.Info(ctx, name)
		if err != nil {
			var verr *session.ValidationError
			if errors.As(err, &verr) {
				fmt.Fprintf(s.out, "  %-20s (unreadable)\n", name)
				continue
			}
			return err
		}
		fmt.Fprintf(s.out, "  %-20s %d tracks  %s\n", name, info.TrackCount, info.Metadata.Created)
	}
	return nil
}

func (s *Shell) deleteSession(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return errUsage
	}
	name := strings.Join(args, " ")
	ok, err := s.app.Sessions.Delete(ctx, name)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: %s", session.ErrSessionNotFound, name)
	}
	fmt.Fprintf(s.out, "deleted %s\n", name)
	return nil
}
