// Package overrides applies override documents to XML configuration, text resources,
// and bean definitions.
//
// An override document is an XML file, usually /WEB-INF/overrides-config.xml under
// an application root, whose top-level sections describe edits:
//
//	<overrides>
//	  <properties>
//	    <lang>fre</lang>
//	    <dbHost>localhost</dbHost>
//	  </properties>
//	  <import file="/WEB-INF/overrides-imported.xml"/>
//	  <file name="config.xml">
//	    <removeXML xpath="*//toRemove"/>
//	    <replaceAtt xpath="default/gui" attName="newAtt" value="newValue"/>
//	    <replaceText xpath="default/language">${lang}</replaceText>
//	    <addXML xpath="."><newNode/></addXML>
//	  </file>
//	  <textFile name="init.sql">
//	    <insertAfter linePattern="'host'">INSERT INTO Settings VALUES (22,20,'port','8080');</insertAfter>
//	  </textFile>
//	  <spring>
//	    <set bean="testBean" property="basicProp" value="overriddenProp"/>
//	  </spring>
//	  <logging>
//	    <level>DEBUG</level>
//	  </logging>
//	</overrides>
//
// # Quick Start
//
// Apply the default override file of an application to a parsed resource:
//
//	doc, err := xmldoc.LoadFile(afero.NewOsFs(), "webapp/WEB-INF/config.xml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	err = overrides.Default.UpdateWithOverrides("config.xml", nil, "webapp", doc.Root())
//
// Or use functional options:
//
//	result, err := overrides.UpdateWithOptions(
//	    overrides.WithResourcePath("webapp/WEB-INF/config.xml"),
//	    overrides.WithAppPath("webapp"),
//	)
//	fmt.Printf("Applied %d directives\n", result.Applied.DirectivesApplied)
//
// # Locating Override Files
//
// Each entry of the override file list is resolved against the application root:
// first AppPath+name, then AppPath/WEB-INF/name, then name itself when absolute.
// An override file that does not exist is skipped. Files found are applied in list
// order, each to the result of the previous one. Entries of the XMLOVERRIDES_FILES
// environment variable are appended to every list.
//
// # Imports
//
// An import section splices another override document into the importing one.
// Names starting with "/" are resolved like override files, other names relative to
// the importing document. Sections of the importing document come first; properties
// keep their first definition, and blocks for the same file are merged. Cycles are
// reported as *xoerrors.ImportCycleError and a document imported twice is expanded
// once.
//
// # Directives
//
// Inside a file block, directives run in document order and later ones see the
// effects of earlier ones:
//   - removeXML: detach the matched nodes; nothing matched is a skip
//   - addXML: append copies of the directive content to each matched element;
//     nothing matched is an error
//   - replaceXML: replace the content of each matched element
//   - replaceAtt, removeAtt: set or delete the attribute attName
//   - replaceText: replace the text of each matched node
//
// Selectors are XPath 1.0 expressions evaluated by package xmlpath. ${name} placeholders in
// selectors, attribute values and text are replaced by properties of the same
// document. Set StrictTargets to turn skips into errors.
//
// # Text Resources
//
// textFile blocks edit line-oriented resources such as SQL scripts. Each directive
// anchors on the first line matching linePattern (a regular expression) or equal to
// line (after trimming), or on every such line with all="true".
//
// # Options
//
// UpdateWithOptions configures a one-off update:
//
//	Option                          Effect
//	WithResourcePath(path)          read the base resource from a file
//	WithResourceDocument(doc)       start from a parsed document (copied)
//	WithResourceName(name)          name matched against file blocks
//	WithAppPath(dir)                application root
//	WithOverrideFiles(files...)     override files, in order
//	WithStrictTargets(bool)         fail on directives that match nothing
//	WithStrictProperties(bool)      fail on scalar properties that match nothing
//	WithFs(fsys)                    filesystem for every read
//	WithLogger(l)                   diagnostics
//	WithDryRun(bool)                preview instead of apply
package overrides
