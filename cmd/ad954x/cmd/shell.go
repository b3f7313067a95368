package cmd

import (
	"errors"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/chzyer/readline"
	"github.com/spf13/cobra"

	"github.com/OpenTraceLab/ad954x/pkg/ad9546"
	"github.com/OpenTraceLab/ad954x/pkg/regdsl"
	"github.com/OpenTraceLab/ad954x/pkg/regmap"
)

var shellCmd = &cobra.Command{
	Use:   "shell",
	Short: "Interactive register shell",
	Long: `Open the bus once and read commands interactively. Paths complete with TAB.
Type "help" for the command list.`,
	RunE: runShell,
}

func init() {
	rootCmd.AddCommand(shellCmd)
}

var errQuit = errors.New("quit")

// shell executes interactive commands against one session.
type shell struct {
	s      *session
	parser *regdsl.Parser
	out    io.Writer
}

func newShell(s *session, out io.Writer) (*shell, error) {
	p, err := regdsl.NewParser()
	if err != nil {
		return nil, err
	}
	return &shell{s: s, parser: p, out: out}, nil
}

func runShell(cmd *cobra.Command, args []string) error {
	s, err := openSession()
	if err != nil {
		return err
	}
	defer s.Close()

	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "ad954x> ",
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
		AutoComplete:    pathCompleter(s.Map()),
	})
	if err != nil {
		return fmt.Errorf("failed to create readline: %w", err)
	}
	defer rl.Close()

	sh, err := newShell(s, rl.Stdout())
	if err != nil {
		return err
	}
	sh.printHelp()

	for {
		line, err := rl.Readline()
		if err != nil {
			if err == readline.ErrInterrupt {
				continue
			}
			return nil
		}
		if err := sh.exec(line); err != nil {
			if errors.Is(err, errQuit) {
				return nil
			}
			fmt.Fprintf(rl.Stderr(), "error: %v\n", err)
		}
	}
}

func pathCompleter(m *regmap.Map) *readline.PrefixCompleter {
	paths := func(string) []string {
		out := m.Paths()
		sort.Strings(out)
		return out
	}
	return readline.NewPrefixCompleter(
		readline.PcItem("get", readline.PcItemDynamic(paths)),
		readline.PcItem("set", readline.PcItemDynamic(paths)),
		readline.PcItem("info", readline.PcItemDynamic(paths)),
		readline.PcItem("update"),
		readline.PcItem("diff"),
		readline.PcItem("peek"),
		readline.PcItem("poke"),
		readline.PcItem("io-update"),
		readline.PcItem("help"),
		readline.PcItem("quit"),
	)
}

func (sh *shell) printHelp() {
	fmt.Fprintln(sh.out, `Commands:
  get <path>            read a register or group
  set <path>=<value>... write fields (validated first, merged per address)
  info <path>           show a register's layout
  update                read the whole map into the snapshot
  diff                  re-read the map and show fields changed since the snapshot
  peek <addr>           read a raw byte
  poke <addr> <value>   write a raw byte
  io-update             latch buffered registers
  help                  this text
  quit                  leave the shell`)
}

func (sh *shell) exec(line string) error {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return nil
	}
	cmd, args := strings.ToLower(fields[0]), fields[1:]
	rest := strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(line), fields[0]))

	switch cmd {
	case "help", "?":
		sh.printHelp()
	case "get", "g":
		return sh.cmdGet(args)
	case "set", "s":
		return sh.cmdSet(rest)
	case "info", "i":
		return sh.cmdInfo(args)
	case "update", "u":
		snap, err := sh.s.dev.Update()
		if err != nil {
			return err
		}
		fmt.Fprintf(sh.out, "%d registers read\n", len(snap.Values))
	case "diff", "d":
		return sh.cmdDiff()
	case "peek":
		return sh.cmdPeek(args)
	case "poke":
		return sh.cmdPoke(args)
	case "io-update":
		return ad9546.IOUpdate(sh.s.dev)
	case "quit", "exit", "q":
		return errQuit
	default:
		return fmt.Errorf("unknown command %q (try help)", cmd)
	}
	return nil
}

func (sh *shell) cmdGet(args []string) error {
	if len(args) == 0 {
		args = []string{""}
	}
	for _, path := range args {
		descs, err := sh.s.Map().Select(path)
		if err != nil {
			return err
		}
		for _, d := range descs {
			v, _, err := sh.s.dev.ReadDescriptor(d)
			if err != nil {
				return err
			}
			fmt.Fprintf(sh.out, "%s = %s\n", d.Path, v)
		}
	}
	return nil
}

func (sh *shell) cmdSet(text string) error {
	if text == "" {
		return fmt.Errorf("usage: set <path>=<value>...")
	}
	settings, err := sh.parser.ParseAssignments("shell", text)
	if err != nil {
		return err
	}
	values, err := regdsl.Resolve(sh.s.Map(), settings)
	if err != nil {
		return err
	}
	res, err := sh.s.dev.Apply(values)
	if res != nil {
		for _, p := range res.Changed {
			fmt.Fprintf(sh.out, "wrote %s = %s\n", p, values[p])
		}
		for _, p := range res.Skipped {
			fmt.Fprintf(sh.out, "unchanged %s\n", p)
		}
	}
	return err
}

func (sh *shell) cmdInfo(args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: info <path>")
	}
	descs, err := sh.s.Map().Select(args[0])
	if err != nil {
		return err
	}
	for _, d := range descs {
		fmt.Fprintf(sh.out, "%s\n  width %d bits", d, d.Width())
		if d.Scaled() {
			fmt.Fprintf(sh.out, ", scaling %g", d.Scaling)
		}
		if d.Signed {
			fmt.Fprint(sh.out, ", signed")
		}
		fmt.Fprintln(sh.out)
		if d.Doc != "" {
			fmt.Fprintf(sh.out, "  %s\n", d.Doc)
		}
	}
	return nil
}

func (sh *shell) cmdDiff() error {
	before := sh.s.dev.Snapshot()
	if before == nil {
		return fmt.Errorf("no snapshot yet, run update first")
	}
	after, err := sh.s.dev.Update()
	if err != nil {
		return err
	}
	n := 0
	for _, p := range after.Paths() {
		v, _ := after.Get(p)
		if prev, ok := before.Get(p); ok && prev != v {
			fmt.Fprintf(sh.out, "%s: %s -> %s\n", p, prev, v)
			n++
		}
	}
	fmt.Fprintf(sh.out, "%d fields changed\n", n)
	return nil
}

func parseAddr(s string) (uint16, error) {
	v, err := strconv.ParseUint(s, 0, 16)
	if err != nil {
		return 0, fmt.Errorf("invalid address %q", s)
	}
	return uint16(v), nil
}

func (sh *shell) cmdPeek(args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: peek <addr>")
	}
	addr, err := parseAddr(args[0])
	if err != nil {
		return err
	}
	v, err := sh.s.dev.ReadRaw(addr)
	if err != nil {
		return err
	}
	fmt.Fprintf(sh.out, "0x%04X = 0x%02X\n", addr, v)
	return nil
}

func (sh *shell) cmdPoke(args []string) error {
	if len(args) != 2 {
		return fmt.Errorf("usage: poke <addr> <value>")
	}
	addr, err := parseAddr(args[0])
	if err != nil {
		return err
	}
	v, err := strconv.ParseUint(args[1], 0, 8)
	if err != nil {
		return fmt.Errorf("invalid value %q", args[1])
	}
	return sh.s.dev.WriteRaw(addr, byte(v))
}
