// Package main is an interactive driver for the text engine.
package main

import (
	"bufio"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/dshills/piecetable/internal/config"
	"github.com/dshills/piecetable/internal/engine"
	"github.com/dshills/piecetable/internal/loader"
)

func main() {
	os.Exit(run())
}

func run() int {
	configPath := flag.String("config", "", "path to a TOML config file")
	watch := flag.Bool("watch", false, "reload opened files on external change")
	flag.Parse()

	cfg := config.Default()
	if *configPath != "" {
		var err error
		cfg, err = config.Load(*configPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: failed to load config: %v\n", err)
			return 1
		}
	}

	repl := &repl{
		engine: engine.New(cfg.EngineOptions()...),
		reader: bufio.NewReader(os.Stdin),
	}
	defer repl.close()

	if *watch {
		w, err := loader.NewWatcher()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: failed to create watcher: %v\n", err)
			return 1
		}
		repl.watcher = w
	}

	if path := flag.Arg(0); path != "" {
		if err := repl.open(path); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return 1
		}
	}

	fmt.Println("piecetable - interactive text engine")
	fmt.Println("Type 'help' for commands, 'quit' to exit")

	for {
		fmt.Print("> ")
		input, err := repl.reader.ReadString('\n')
		if err != nil {
			fmt.Println()
			return 0
		}
		input = strings.TrimSpace(input)
		if input == "" {
			continue
		}
		if !repl.handle(input) {
			return 0
		}
	}
}

type repl struct {
	engine  *engine.Engine
	reader  *bufio.Reader
	watcher *loader.Watcher
}

func (r *repl) close() {
	if r.watcher != nil {
		_ = r.watcher.Close()
	}
}

func (r *repl) open(path string) error {
	content, err := loader.Load(path)
	if err != nil {
		return err
	}
	if err := r.engine.Load(content); err != nil {
		return err
	}
	if r.watcher != nil {
		return r.watcher.Watch(path, func(changed string) {
			if content, err := loader.Load(changed); err == nil {
				_ = r.engine.Load(content)
				fmt.Printf("\n[reloaded %s]\n> ", changed)
			}
		})
	}
	return nil
}

func (r *repl) handle(input string) bool {
	parts := strings.SplitN(input, " ", 2)
	cmd := strings.ToLower(parts[0])
	rest := ""
	if len(parts) > 1 {
		rest = parts[1]
	}

	switch cmd {
	case "help":
		r.printHelp()

	case "quit", "exit":
		return false

	case "open":
		if err := r.open(rest); err != nil {
			fmt.Printf("error: %v\n", err)
		}

	case "load":
		_ = r.engine.Load(unescape(rest))

	case "append":
		if err := r.engine.Append(unescape(rest)); err != nil {
			fmt.Printf("error: %v\n", err)
		}

	case "insert":
		args := strings.SplitN(rest, " ", 2)
		if len(args) < 2 {
			fmt.Println("usage: insert <offset> <text>")
			return true
		}
		offset, err := strconv.Atoi(args[0])
		if err != nil {
			fmt.Printf("error: bad offset: %v\n", err)
			return true
		}
		if err := r.engine.Insert(offset, unescape(args[1])); err != nil {
			fmt.Printf("error: %v\n", err)
		}

	case "delete":
		start, end, ok := parseRange(rest)
		if !ok {
			fmt.Println("usage: delete <start> <end>")
			return true
		}
		if err := r.engine.Delete(start, end); err != nil {
			fmt.Printf("error: %v\n", err)
		}

	case "replace":
		args := strings.SplitN(rest, " ", 3)
		if len(args) < 3 {
			fmt.Println("usage: replace <start> <end> <text>")
			return true
		}
		start, end, ok := parseRange(args[0] + " " + args[1])
		if !ok {
			fmt.Println("usage: replace <start> <end> <text>")
			return true
		}
		if err := r.engine.Replace(start, end, unescape(args[2])); err != nil {
			fmt.Printf("error: %v\n", err)
		}

	case "text":
		fmt.Printf("%q\n", r.engine.Text())

	case "len":
		fmt.Println(r.engine.Len())

	case "lines":
		fmt.Println(r.engine.LineCount())

	case "line":
		i, err := strconv.Atoi(rest)
		if err != nil {
			fmt.Println("usage: line <index>")
			return true
		}
		content, err := r.engine.LineContent(i)
		if err != nil {
			fmt.Printf("error: %v\n", err)
			return true
		}
		lr, _ := r.engine.LineRange(i)
		fmt.Printf("[%d,%d) %q\n", lr.Start, lr.End, content)

	case "find":
		if m, ok := r.engine.Search(rest, true); ok {
			fmt.Printf("[%d,%d) %q\n", m.Range.Start, m.Range.End, m.Value)
		} else {
			fmt.Println("no match")
		}

	case "findall":
		matches := r.engine.SearchMulti(rest, 0, true, true)
		for _, m := range matches {
			fmt.Printf("[%d,%d) %q\n", m.Range.Start, m.Range.End, m.Value)
		}
		fmt.Printf("%d match(es)\n", len(matches))

	case "undo":
		fmt.Printf("caret: %d\n", r.engine.Undo())

	case "redo":
		fmt.Printf("caret: %d\n", r.engine.Redo())

	default:
		fmt.Printf("unknown command %q; try 'help'\n", cmd)
	}
	return true
}

func (r *repl) printHelp() {
	fmt.Println(`commands:
  open <path>                load a file
  load <text>                set content ('\n' for newlines)
  append <text>              append text
  insert <offset> <text>     insert at offset
  delete <start> <end>       delete [start, end)
  replace <start> <end> <t>  replace [start, end) with t
  text | len | lines         inspect content
  line <index>               line range and content
  find <pattern>             first match (regex auto-detected)
  findall <pattern>          every match
  undo | redo                step through history
  quit`)
}

func parseRange(s string) (int, int, bool) {
	fields := strings.Fields(s)
	if len(fields) != 2 {
		return 0, 0, false
	}
	start, err1 := strconv.Atoi(fields[0])
	end, err2 := strconv.Atoi(fields[1])
	if err1 != nil || err2 != nil {
		return 0, 0, false
	}
	return start, end, true
}

func unescape(s string) string {
	s = strings.ReplaceAll(s, `\n`, "\n")
	return strings.ReplaceAll(s, `\t`, "\t")
}
