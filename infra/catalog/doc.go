// Package catalog provides the stores category configurations are loaded
// from: a yaml or json file, optionally watched for changes, and a SQLite
// table. Both register themselves as category providers.
package catalog
