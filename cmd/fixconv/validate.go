package main

import (
	"bufio"
	"errors"
	"flag"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/danmuck/fixconv/internal/config"
	"github.com/danmuck/fixconv/internal/protocol/schema"
)

var errInvalidMessages = errors.New("some messages are invalid")

func runValidate(args []string, stdin io.Reader, stdout io.Writer) error {
	fs := flag.NewFlagSet("validate", flag.ContinueOnError)
	configPath := fs.String("config", "", "path to fixconv.toml")
	versionID := fs.String("version", "", "FIX version id (defaults to config default_version)")
	criteriaPath := fs.String("criteria", "", "YAML criteria file (defaults to the config [criteria] table)")
	in := fs.String("in", "-", "input file, one message per line (- for stdin)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := loadConfig(*configPath)
	if err != nil {
		return err
	}
	_, version, err := resolveVersion(cfg, *versionID)
	if err != nil {
		return err
	}
	criteria := schema.CriteriaFromMap(cfg.Criteria)
	if *criteriaPath != "" {
		if criteria, err = schema.LoadCriteria(*criteriaPath); err != nil {
			return err
		}
	}
	conv, err := newConverter(cfg)
	if err != nil {
		return err
	}

	var src io.Reader
	if fs.NArg() > 0 {
		src = strings.NewReader(strings.Join(fs.Args(), "\n"))
	} else {
		r, closeIn, err := openInput(*in, stdin)
		if err != nil {
			return err
		}
		defer closeIn()
		src = r
	}

	scanner := bufio.NewScanner(src)
	scanner.Buffer(make([]byte, 0, 64*1024), 1<<20)
	item, invalid := 0, 0
	for scanner.Scan() {
		line := scanner.Text()
		if strings.TrimSpace(line) == "" {
			continue
		}
		item++
		if err := conv.Validate(line, version, criteria); err != nil {
			invalid++
			fmt.Fprintf(stdout, "%d\tinvalid\t%v\n", item, err)
			continue
		}
		fmt.Fprintf(stdout, "%d\tvalid\n", item)
	}
	if err := scanner.Err(); err != nil {
		return err
	}
	if invalid > 0 {
		return fmt.Errorf("%w: %d of %d", errInvalidMessages, invalid, item)
	}
	return nil
}

func runVersions(args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("versions", flag.ContinueOnError)
	configPath := fs.String("config", "", "path to fixconv.toml")
	if err := fs.Parse(args); err != nil {
		return err
	}
	cfg, err := loadConfig(*configPath)
	if err != nil {
		return err
	}
	reg, err := cfg.Registry()
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tBEGINSTRING\tDICTIONARY\tDEFAULT")
	for _, v := range reg.Versions() {
		bs, _ := v.BeginString()
		ref, err := v.SchemaReference()
		if err != nil {
			ref = v.DefaultReference() + " (missing)"
		}
		if v.HasOverride() {
			ref += " (override)"
		}
		def := ""
		if v.ID() == cfg.DefaultVersion {
			def = "*"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", v.ID(), bs, ref, def)
	}
	return tw.Flush()
}

func runConfig(args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("config", flag.ContinueOnError)
	configPath := fs.String("config", "", "path to fixconv.toml")
	if err := fs.Parse(args); err != nil {
		return err
	}
	cfg, err := loadConfig(*configPath)
	if err != nil {
		return err
	}
	b, err := config.Encode(cfg)
	if err != nil {
		return err
	}
	_, err = stdout.Write(b)
	return err
}
