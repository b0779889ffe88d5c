package main

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"modelcat/internal/catalog"
	"modelcat/internal/classifier"
	"modelcat/internal/flatten"
	"modelcat/internal/ioformats"
	"modelcat/internal/models"
	"modelcat/internal/version"
)

func (a *app) extractCmd() *cobra.Command {
	var in, out string
	cmd := &cobra.Command{
		Use:   "extract [url...]",
		Short: "Fetch links and write one annotation per link as NDJSON",
		RunE: func(cmd *cobra.Command, args []string) error {
			urls := args
			if in != "" {
				more, err := ioformats.ReadURLs(in)
				if err != nil {
					return fmt.Errorf("read input: %w", err)
				}
				urls = append(urls, more...)
			}
			if len(urls) == 0 {
				return errors.New("no urls: pass them as arguments or with --input")
			}
			l := a.batch("extract")
			l.Infof("extracting %d links", len(urls))
			recs := a.pipe.ExtractAll(cmd.Context(), urls)
			return writeNDJSON(out, recs)
		},
	}
	cmd.Flags().StringVar(&in, "input", "", "csv with a 'url' column or ndjson of urls")
	cmd.Flags().StringVar(&out, "output", "", "output file (default stdout)")
	return cmd
}

func (a *app) annotateCmd() *cobra.Command {
	var in, out, catalogID string
	cmd := &cobra.Command{
		Use:   "annotate",
		Short: "Attach an annotation to every web link of every entry",
		RunE: func(cmd *cobra.Command, args []string) error {
			entries, err := a.loadEntries(cmd.Context(), in, catalogID)
			if err != nil {
				return err
			}
			l := a.batch("annotate")
			l.Infof("annotating %d entries", len(entries))
			return writeNDJSON(out, a.pipe.Annotator.Annotate(cmd.Context(), entries))
		},
	}
	entryFlags(cmd, &in, &catalogID)
	cmd.Flags().StringVar(&out, "output", "", "output NDJSON file (default stdout)")
	return cmd
}

func (a *app) mineCmd() *cobra.Command {
	var (
		in, out, catalogID string
		annotated          bool
	)
	cmd := &cobra.Command{
		Use:   "mine",
		Short: "Mine facts from annotated entries (.csv, .xlsx or NDJSON output)",
		RunE: func(cmd *cobra.Command, args []string) error {
			entries, err := a.loadEntries(cmd.Context(), in, catalogID)
			if err != nil {
				return err
			}
			l := a.batch("mine")
			if !annotated {
				entries = a.pipe.Annotator.Annotate(cmd.Context(), entries)
			}
			facts := a.pipe.Miner.MineAll(entries)
			l.Infof("mined %d facts from %d entries", len(facts), len(entries))
			if format(out) == "ndjson" {
				return writeNDJSON(out, facts)
			}
			return writeTable(out, "Facts", models.FactColumns, ioformats.FactRows(facts))
		},
	}
	entryFlags(cmd, &in, &catalogID)
	cmd.Flags().BoolVar(&annotated, "annotated", false, "input entries already carry annotations")
	cmd.Flags().StringVar(&out, "output", "", "output file (default NDJSON on stdout)")
	return cmd
}

func (a *app) flattenCmd() *cobra.Command {
	var in, out string
	cmd := &cobra.Command{
		Use:   "flatten",
		Short: "Flatten JSON values (entries, annotations, anything) into rows",
		RunE: func(cmd *cobra.Command, args []string) error {
			if in == "" {
				return errors.New("--input is required")
			}
			f, err := os.Open(in)
			if err != nil {
				return err
			}
			defer f.Close()
			values, err := ioformats.ReadJSON[any](f)
			if err != nil {
				return err
			}
			records := make([]*flatten.Record, 0, len(values))
			for i, v := range values {
				r, err := flatten.Flatten(v)
				if err != nil {
					return fmt.Errorf("value %d: %w", i, err)
				}
				records = append(records, r)
			}
			return writeRecords(out, records)
		},
	}
	cmd.Flags().StringVar(&in, "input", "", "JSON array or NDJSON file")
	cmd.Flags().StringVar(&out, "output", "", "output file (.csv, .xlsx, default NDJSON on stdout)")
	return cmd
}

func (a *app) classifyCmd() *cobra.Command {
	var in, out, bucket string
	cmd := &cobra.Command{
		Use:   "classify",
		Short: "Keep the annotations that carry a given metadata shape",
		RunE: func(cmd *cobra.Command, args []string) error {
			b, err := classifier.ParseBucket(bucket)
			if err != nil {
				return err
			}
			if in == "" {
				return errors.New("--input is required")
			}
			recs, err := ioformats.ReadAnnotations(in)
			if err != nil {
				return err
			}
			kept, err := a.pipe.Classifier.Classify(recs, b)
			if err != nil {
				return err
			}
			l := a.batch("classify")
			counts := a.pipe.Classifier.Summarize(recs)
			for _, bk := range classifier.Buckets() {
				l.Debugf("bucket %s: %d", bk, counts[bk])
			}
			l.Infof("bucket %s kept %d of %d", b, len(kept), len(recs))
			return writeNDJSON(out, kept)
		},
	}
	names := make([]string, 0, len(classifier.Buckets()))
	for _, b := range classifier.Buckets() {
		names = append(names, string(b))
	}
	cmd.Flags().StringVar(&in, "input", "", "annotations as a JSON array or NDJSON")
	cmd.Flags().StringVar(&bucket, "bucket", string(classifier.All), "one of "+strings.Join(names, ", "))
	cmd.Flags().StringVar(&out, "output", "", "output NDJSON file (default stdout)")
	return cmd
}

func (a *app) modelsCmd() *cobra.Command {
	var catalogID, out string
	var linksOnly bool
	cmd := &cobra.Command{
		Use:   "models",
		Short: "Pull the models of a catalog with their web links",
		RunE: func(cmd *cobra.Command, args []string) error {
			if catalogID == "" {
				catalogID = a.cfg.Catalog.DefaultCatalogID
			}
			entries, links, err := a.catalogClient("").GetModels(cmd.Context(), catalogID)
			if err != nil {
				return err
			}
			a.log.Infof("catalog %s: %d models, %d distinct links", catalogID, len(entries), len(links))
			if linksOnly {
				w, err := output(out)
				if err != nil {
					return err
				}
				defer w.Close()
				for _, u := range links {
					if _, err := fmt.Fprintln(w, u); err != nil {
						return err
					}
				}
				return nil
			}
			return writeNDJSON(out, entries)
		},
	}
	cmd.Flags().StringVar(&catalogID, "catalog", "", "catalog item id (default catalog.default_catalog_id)")
	cmd.Flags().BoolVar(&linksOnly, "links", false, "print the sorted distinct link urls only")
	cmd.Flags().StringVar(&out, "output", "", "output file (default stdout)")
	return cmd
}

func (a *app) listOutCmd() *cobra.Command {
	var (
		catalogID, out string
		opts           catalog.ListOptions
	)
	cmd := &cobra.Command{
		Use:   "list-out",
		Short: "Summarise every model of a catalog as one row",
		RunE: func(cmd *cobra.Command, args []string) error {
			if catalogID == "" {
				catalogID = a.cfg.Catalog.DefaultCatalogID
			}
			rows, err := a.catalogClient("").ListOut(cmd.Context(), catalogID, opts)
			if err != nil {
				return err
			}
			cols := opts.Columns()
			if format(out) == "xlsx" {
				return ioformats.WriteCatalogList(out, cols, rows)
			}
			return writeTable(out, "Models", cols, ioformats.MapRows(cols, rows))
		},
	}
	cmd.Flags().StringVar(&catalogID, "catalog", "", "catalog item id (default catalog.default_catalog_id)")
	cmd.Flags().BoolVar(&opts.Contact, "contact", true, "include the first contact")
	cmd.Flags().BoolVar(&opts.ReferenceLink, "reference-link", true, "include the model reference link")
	cmd.Flags().BoolVar(&opts.CatalogLink, "catalog-link", true, "include the catalog item link")
	cmd.Flags().StringVar(&out, "output", "model_catalog_list.xlsx", "output file (.xlsx, .csv, or NDJSON)")
	return cmd
}

func (a *app) buildDocsCmd() *cobra.Command {
	var (
		sheet, parent, out, token string
		create                    bool
	)
	cmd := &cobra.Command{
		Use:   "build-docs",
		Short: "Turn the models spreadsheet into catalog items",
		RunE: func(cmd *cobra.Command, args []string) error {
			if sheet == "" || parent == "" {
				return errors.New("--sheet and --parent are required")
			}
			rows, err := ioformats.LoadModelsSheet(sheet)
			if err != nil {
				return err
			}
			l := a.batch("build-docs")
			docs := catalog.BuildModelDocuments(cmd.Context(), parent, rows, a.directoryClient())
			l.Infof("built %d model documents under %s", len(docs), parent)
			if !create {
				return writeNDJSON(out, docs)
			}
			c := a.catalogClient(token)
			created := make([]models.CatalogEntry, 0, len(docs))
			for _, d := range docs {
				item, err := c.CreateItem(cmd.Context(), d)
				if err != nil {
					return fmt.Errorf("create %q: %w", d.Title, err)
				}
				l.Infof("created %s (%s)", item.ID, item.Title)
				created = append(created, item)
			}
			return writeNDJSON(out, created)
		},
	}
	cmd.Flags().StringVar(&sheet, "sheet", "", "models workbook (.xlsx)")
	cmd.Flags().StringVar(&parent, "parent", "", "catalog item id the models belong to")
	cmd.Flags().BoolVar(&create, "create", false, "create the items in the catalog instead of printing them")
	cmd.Flags().StringVar(&token, "token", os.Getenv("SB_TOKEN"), "catalog API token (default $SB_TOKEN)")
	cmd.Flags().StringVar(&out, "output", "", "output NDJSON file (default stdout)")
	return cmd
}

func (a *app) createCatalogCmd() *cobra.Command {
	var (
		spec  catalog.CatalogSpec
		token string
	)
	cmd := &cobra.Command{
		Use:   "create-catalog",
		Short: "Create the model catalog root item",
		RunE: func(cmd *cobra.Command, args []string) error {
			item, err := a.catalogClient(token).CreateModelCatalog(cmd.Context(), spec)
			if err != nil {
				return err
			}
			a.log.Infof("created catalog %s (%s)", item.ID, item.CatalogURL)
			_, err = fmt.Fprintln(cmd.OutOrStdout(), item.ID)
			return err
		},
	}
	cmd.Flags().StringVar(&spec.ParentID, "parent", "", "parent item id")
	cmd.Flags().StringVar(&spec.Title, "title", "USGS Model Catalog", "catalog title")
	cmd.Flags().StringVar(&spec.Body, "body", "", "catalog description")
	cmd.Flags().BoolVar(&spec.DeleteIfExists, "replace", true, "delete same-titled items under the parent first")
	cmd.Flags().StringVar(&token, "token", os.Getenv("SB_TOKEN"), "catalog API token (default $SB_TOKEN)")
	return cmd
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), "modelcat", version.Version)
		},
	}
}

func entryFlags(cmd *cobra.Command, in, catalogID *string) {
	cmd.Flags().StringVar(in, "input", "", "catalog entries as a JSON array or NDJSON")
	cmd.Flags().StringVar(catalogID, "catalog", "", "pull entries from this catalog item when --input is empty")
}
