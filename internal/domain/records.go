package domain

import (
	"strings"

	"github.com/pagecrest/domains/internal/registrar"
)

// RecordType enumerates the DNS record types we instruct users to create.
type RecordType string

const (
	RecordA     RecordType = "A"
	RecordCNAME RecordType = "CNAME"
	RecordTXT   RecordType = "TXT"
)

// Record is one DNS record the user must create at their DNS provider.
// Instructional output only; nothing here is persisted.
type Record struct {
	Type  RecordType `json:"type"`
	Name  string     `json:"name"`
	Value string     `json:"value"`
}

// Platform routing targets. Overridable per deployment via SetTargets on the
// Checker; these are the production defaults.
const (
	DefaultApexIP      = "76.223.105.230"
	DefaultCNAMETarget = "sites.pagecrest-dns.com"
)

// buildInstructions renders the ordered record list for a domain.
//
// TXT challenges come first, in the order the platform returned them: users
// are told to publish verification records before the routing records.
func buildInstructions(hostname string, isApex bool, verification []registrar.Verification, apexIP, cnameTarget string) []Record {
	records := make([]Record, 0, len(verification)+2)

	for _, challenge := range verification {
		if !strings.EqualFold(challenge.Type, string(RecordTXT)) {
			continue
		}
		records = append(records, Record{
			Type:  RecordTXT,
			Name:  challenge.Domain,
			Value: challenge.Value,
		})
	}

	if isApex {
		records = append(records,
			Record{Type: RecordA, Name: "@", Value: apexIP},
			Record{Type: RecordCNAME, Name: "www", Value: cnameTarget},
		)
		return records
	}

	label, _, _ := strings.Cut(hostname, ".")
	records = append(records, Record{Type: RecordCNAME, Name: label, Value: cnameTarget})
	return records
}
