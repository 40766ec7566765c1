package main

import (
	"flag"
	"log"

	"github.com/danmuck/fixconv/internal/config"
	"github.com/danmuck/fixconv/internal/protocol/schema"
)

func defaultPath(kind string) string {
	switch kind {
	case "fixconv":
		return "fixconv.toml"
	case "criteria":
		return "criteria.yaml"
	default:
		log.Fatalf("unknown kind: %s", kind)
		return ""
	}
}

func main() {
	kind := flag.String("kind", "fixconv", "config kind: fixconv|criteria")
	output := flag.String("output", "", "output path for config template")
	validate := flag.Bool("validate", false, "validate an existing config file")
	input := flag.String("input", "", "config path for validation (defaults to per-kind path)")
	force := flag.Bool("force", false, "overwrite existing config file")
	flag.Parse()

	if *validate {
		path := *input
		if path == "" {
			path = defaultPath(*kind)
		}

		switch *kind {
		case "fixconv":
			if _, err := config.Load(path); err != nil {
				log.Fatal(err)
			}
		case "criteria":
			if _, err := schema.LoadCriteria(path); err != nil {
				log.Fatal(err)
			}
		default:
			log.Fatalf("unknown kind: %s", *kind)
		}
		log.Printf("Validated %s config at %s", *kind, path)
		return
	}

	target := *output
	if target == "" {
		target = defaultPath(*kind)
	}

	if err := config.WriteTemplate(target, *kind, *force); err != nil {
		log.Fatal(err)
	}
	log.Printf("Wrote %s config template to %s", *kind, target)
}
