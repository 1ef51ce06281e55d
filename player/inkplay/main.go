package main

import (
	"bufio"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/chzyer/readline"
	"github.com/mattn/go-isatty"
	"github.com/npillmayer/goink/player"
	"github.com/npillmayer/goink/story"
	"github.com/npillmayer/schuko/gconf"
	"github.com/npillmayer/schuko/tracing"
	"github.com/npillmayer/schuko/tracing/gologadapter"
	"github.com/npillmayer/schuko/tracing/trace2go"
	"github.com/pterm/pterm"
)

// main() starts a player for a compiled ink story. Interactive players get
// a line editor, otherwise commands are read from stdin line by line.
func main() {
	tlevel := flag.String("trace", "", "Trace level [Debug|Info|Error]")
	confFile := flag.String("config", "", "Player configuration file (TOML)")
	budget := flag.Int("budget", 0, "Time budget for story evaluation in ms, 0 = unlimited")
	seed := flag.Int("seed", -1, "Seed for random numbers, -1 = time based")
	flag.Parse()
	if flag.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "usage: inkplay [flags] story.json")
		flag.PrintDefaults()
		os.Exit(1)
	}
	conf := player.DefaultConfig()
	if *confFile != "" {
		var err error
		if conf, err = player.LoadConfig(*confFile); err != nil {
			fmt.Fprintln(os.Stderr, err.Error())
			os.Exit(1)
		}
	}
	flag.Visit(func(f *flag.Flag) { // flags override the configuration file
		switch f.Name {
		case "trace":
			conf.Player.Trace = *tlevel
		case "budget":
			conf.Player.BudgetMs = *budget
		case "seed":
			if *seed >= 0 {
				conf.Player.Seed = seed
			}
		}
	})
	//
	// set up tracing and global configuration
	settings := conf.Settings()
	tracing.RegisterTraceAdapter("go", gologadapter.GetAdapter(), false)
	if err := trace2go.ConfigureRoot(settings, "tracelevel", trace2go.ReplaceTracers(true)); err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
	}
	tracing.SetTraceSelector(trace2go.Selector())
	gconf.Initialize(settings)
	tracer().SetTraceLevel(tracing.TraceLevelFromString(conf.Player.Trace))
	interactive := isatty.IsTerminal(os.Stdin.Fd()) || isatty.IsCygwinTerminal(os.Stdin.Fd())
	tracer().Infof("Trace level is %s, interactive = %v", conf.Player.Trace, interactive)
	//
	// load the story
	sess, err := newSession(flag.Arg(0), conf)
	if err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(2)
	}
	if interactive {
		initDisplay()
		pterm.Info.Println("Welcome to inkplay") // colored welcome message
		tracer().Infof("Quit with <ctrl>D")     // inform user how to stop the CLI
		repl, err := readline.New(conf.Player.Prompt)
		if err != nil {
			tracer().Errorf(err.Error())
			os.Exit(3)
		}
		p := &printer{w: repl.Stdout(), fancy: true}
		code := play(sess, p, repl.Readline)
		repl.Close()
		os.Exit(code)
	}
	p := &printer{w: os.Stdout}
	lines := bufio.NewScanner(os.Stdin)
	readLine := func() (string, error) {
		if !lines.Scan() {
			if err := lines.Err(); err != nil {
				return "", err
			}
			return "", io.EOF
		}
		return lines.Text(), nil
	}
	os.Exit(play(sess, p, readLine))
}

func newSession(path string, conf *player.Config) (*player.Session, error) {
	doc, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	s, err := story.New(doc)
	if err != nil {
		return nil, err
	}
	if err = conf.BindAll(s); err != nil {
		return nil, err
	}
	budget := story.DefaultAsyncBudget()
	tracer().Debugf("story %s loaded, time budget is %v", path, budget)
	return player.NewSession(s, budget), nil
}

// play runs the player loop until input ends or the player quits. It
// returns an exit code.
func play(sess *player.Session, p *printer, readLine func() (string, error)) int {
	turn, err := sess.Step()
	p.turn(turn)
	if err != nil {
		p.error(err)
		return 2
	}
	for {
		line, err := readLine()
		if err != nil { // io.EOF
			break
		}
		if line = strings.TrimSpace(line); line == "" {
			continue
		}
		reply, err := sess.Execute(line)
		if err != nil {
			p.error(err)
			continue
		}
		if reply.Quit {
			break
		}
		if reply.Text != "" {
			p.info(reply.Text)
		}
		if reply.Turn != nil {
			p.turn(reply.Turn)
		}
	}
	if p.fancy {
		println("Good bye!")
	}
	return 0
}

// We use pterm for moderately fancy output.
func initDisplay() {
	pterm.EnableDebugMessages()
	pterm.Info.Prefix = pterm.Prefix{
		Text:  "  >>",
		Style: pterm.NewStyle(pterm.BgCyan, pterm.FgBlack),
	}
	pterm.Error.Prefix = pterm.Prefix{
		Text:  "  Error",
		Style: pterm.NewStyle(pterm.BgRed, pterm.FgBlack),
	}
	pterm.Warning.Prefix = pterm.Prefix{
		Text:  "  Warning",
		Style: pterm.NewStyle(pterm.BgYellow, pterm.FgBlack),
	}
}

// printer writes story output, plain or colored.
type printer struct {
	w     io.Writer
	fancy bool
}

func (p *printer) turn(t *player.Turn) {
	if t == nil {
		return
	}
	for _, l := range t.Lines {
		fmt.Fprintln(p.w, l.Text)
		if len(l.Tags) > 0 {
			tags := "# " + strings.Join(l.Tags, " # ")
			if p.fancy {
				tags = pterm.FgGray.Sprint(tags)
			}
			fmt.Fprintln(p.w, tags)
		}
	}
	for _, w := range t.Warnings {
		if p.fancy {
			pterm.Warning.Println(w)
		} else {
			fmt.Fprintln(p.w, "warning: "+w)
		}
	}
	for i, c := range t.Choices {
		n := fmt.Sprintf("%d:", i+1)
		if p.fancy {
			n = pterm.FgCyan.Sprint(n)
		}
		fmt.Fprintf(p.w, "%s %s\n", n, c)
	}
	if t.Ended {
		p.info("THE END")
	}
}

func (p *printer) info(text string) {
	if p.fancy {
		pterm.Info.Println(text)
		return
	}
	fmt.Fprintln(p.w, text)
}

func (p *printer) error(err error) {
	tracer().Debugf("error: %v", err)
	if p.fancy {
		pterm.Error.Println(err.Error())
		return
	}
	fmt.Fprintln(os.Stderr, "error: "+err.Error())
}
