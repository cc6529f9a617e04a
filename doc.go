// Package xmloverrides provides tools for customising deployed applications
// through override documents instead of editing their configuration files.
//
// An application root (a webapp directory) holds XML configuration, text
// resources such as SQL scripts, and bean-definition files. One or more override
// documents, /WEB-INF/overrides-config.xml by default, describe edits to apply to
// them when they are loaded: XML node and attribute changes, line edits, bean
// property changes, and the logging level.
//
// # Overview
//
// The module consists of these packages:
//
//   - overrides: load override documents and apply them to resources
//   - xmlpath: the selector engine used to address XML nodes
//   - xmldoc: parse, clone and serialise XML documents
//   - xoerrors: typed errors shared by every package
//   - beans: refresh bean definitions with the spring section applied
//   - dbinit: run SQL scripts after their textFile blocks were applied
//
// The xmloverrides command exposes the same operations on the command line and
// as Model Context Protocol tools.
//
// # Installation
//
//	go get github.com/xmloverrides/xmloverrides
//
// # Quick Start
//
// Apply the default override file to a configuration document:
//
//	import (
//		"github.com/xmloverrides/xmloverrides/overrides"
//		"github.com/xmloverrides/xmloverrides/xmldoc"
//	)
//
//	doc, err := xmldoc.LoadFile(afero.NewOsFs(), "/srv/webapp/WEB-INF/config.xml")
//	if err != nil {
//		log.Fatal(err)
//	}
//	result, err := overrides.Default.Update("config.xml", nil, "/srv/webapp", doc.Root())
//	if err != nil {
//		log.Fatal(err)
//	}
//	fmt.Printf("applied %d directives\n", result.DirectivesApplied)
//
// Preview the same edits without touching the document:
//
//	preview, err := overrides.Default.DryRun("config.xml", nil, "/srv/webapp", doc.Root())
//	for _, c := range preview.Changes {
//		fmt.Println(c.Directive, c.Description, c.MatchedPaths)
//	}
//
// Patch a SQL script and run it:
//
//	r := &dbinit.Runner{DB: db, AppPath: "/srv/webapp"}
//	if _, err := r.Run(ctx, "/WEB-INF/sql/init.sql"); err != nil {
//		log.Fatal(err)
//	}
//
// # Override Files
//
// Override files are applied in list order; later files see the edits of earlier
// ones. The XMLOVERRIDES_FILES environment variable appends further files to
// every list. A missing override file is skipped, while a malformed one is an
// error.
//
// # Error Handling
//
// Errors carry a type from the xoerrors package and match its sentinels with
// errors.Is:
//
//	if errors.Is(err, xoerrors.ErrSelectorAmbiguity) {
//		// a strict override matched nothing
//	}
//
// # Command Line
//
//	xmloverrides apply --app /srv/webapp /srv/webapp/WEB-INF/config.xml
//	xmloverrides text --app /srv/webapp /srv/webapp/WEB-INF/sql/init.sql
//	xmloverrides inspect --app /srv/webapp --validate
//	xmloverrides mcp
package xmloverrides
