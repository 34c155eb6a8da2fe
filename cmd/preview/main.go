// Command preview simulates draft rule sets against products without
// touching any store. Input is a YAML stream of preview documents:
//
//	product: {id: p1, price: "20.00"}
//	metrics: {units_available: 150, window_days: 30}
//	rule_set:
//	  id: draft
//	  rules:
//	    - id: markdown
//	      condition: {type: units_available, operator: greater_or_equal, value: 100}
//	      action: {type: decrease, value_type: percentage, value: "10"}
//	---
//	product: ...
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/light-bringer/dynprice-service/internal/app/pricing/domain"
	"github.com/light-bringer/dynprice-service/internal/app/pricing/queries/preview_rules"
	"github.com/light-bringer/dynprice-service/internal/app/pricing/ruledoc"
	"github.com/light-bringer/dynprice-service/internal/pkg/selector"
	"github.com/light-bringer/dynprice-service/internal/transport/view"
)

func main() {
	file := flag.String("f", "-", "Preview YAML file, - for stdin")
	flag.Parse()

	in := io.Reader(os.Stdin)
	if *file != "-" {
		f, err := os.Open(*file)
		if err != nil {
			log.Fatalf("Failed to open %s: %v", *file, err)
		}
		defer f.Close()
		in = f
	}

	if err := run(in, os.Stdout, time.Now()); err != nil {
		log.Fatalf("Preview failed: %v", err)
	}
}

// run evaluates every document in r and writes one JSON result per line.
func run(r io.Reader, w io.Writer, now time.Time) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}

	matcher, err := selector.NewMatcher()
	if err != nil {
		return err
	}
	query := preview_rules.NewQuery(domain.NewRuleEngine(nil))
	enc := json.NewEncoder(w)

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	for n := 1; ; n++ {
		var doc ruledoc.PreviewDocument
		if err := dec.Decode(&doc); err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return fmt.Errorf("document %d: %w", n, err)
		}

		req, err := preview_rules.RequestFromDocument(doc, now)
		if err != nil {
			return fmt.Errorf("document %d: %w", n, err)
		}
		if req.RuleSet.Selector != "" {
			if err := matcher.Validate(req.RuleSet.Selector); err != nil {
				return fmt.Errorf("document %d: selector: %w", n, err)
			}
		}

		if err := enc.Encode(view.FromResult(query.Execute(context.Background(), req))); err != nil {
			return err
		}
	}
}
