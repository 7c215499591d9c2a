// Package structure assembles an election fixture from an election
// directory of CSV files.
//
// An election directory is laid out as:
//
//	1-structure/11-election*.csv         Attribute,Value
//	1-structure/12-contests*.csv         Contest id,Contest type,Winners,Write-ins,Selections...
//	1-structure/13-collections*.csv      Collection id,Manager,CVR type,Contests...
//	2-election/21-reported-votes/reported-cvrs-<pbcid>*.csv
//	2-election/22-ballot-manifests/manifest-<pbcid>*.csv
//	2-election/23-reported-outcomes*.csv Contest id,Winner(s)...
//
// Files are versioned by suffix (usually a date). When several files share
// a prefix, the lexicographically greatest name is used.
package structure
