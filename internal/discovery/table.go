package discovery

import (
	"sort"

	"github.com/Checkmk/checkmk-sub072/internal/domain"
)

// Status classifies a service within one reconciliation run.
type Status string

const (
	StatusNew       Status = "new"
	StatusVanished  Status = "vanished"
	StatusUnchanged Status = "unchanged"
	// StatusChanged marks a service that is still discovered but whose
	// discovered parameters or labels differ from the persisted ones. It is
	// kept exactly like an unchanged service.
	StatusChanged Status = "changed"
)

// TableRow is one entry of a ServiceTable. Service is the record that would
// be persisted if the row is kept.
type TableRow struct {
	Status  Status
	Service domain.Service
}

// ServiceTable maps (check plugin, item) to the status of the service. It is
// built for a single run and never persisted.
type ServiceTable map[domain.ServiceKey]TableRow

// BuildTable diffs discovered against persisted services. Services present in
// both carry the persisted parameters and the discovered labels and
// description.
func BuildTable(discovered, persisted []domain.Service) ServiceTable {
	table := make(ServiceTable, len(discovered)+len(persisted))

	for _, s := range persisted {
		table[s.Key()] = TableRow{Status: StatusVanished, Service: s}
	}

	for _, fresh := range discovered {
		key := fresh.Key()
		row, ok := table[key]
		if !ok {
			table[key] = TableRow{Status: StatusNew, Service: fresh}
			continue
		}

		old := row.Service
		status := StatusUnchanged
		if !fresh.Parameters.Equal(old.Parameters) || !fresh.ServiceLabels.Equal(old.ServiceLabels) {
			status = StatusChanged
		}
		kept := fresh
		kept.Parameters = old.Parameters
		table[key] = TableRow{Status: status, Service: kept}
	}
	return table
}

// Rows returns the rows sorted by service key.
func (t ServiceTable) Rows() []TableRow {
	rows := make([]TableRow, 0, len(t))
	for _, r := range t {
		rows = append(rows, r)
	}
	sort.SliceStable(rows, func(i, j int) bool {
		return rows[i].Service.Key().Less(rows[j].Service.Key())
	})
	return rows
}

// Count returns the number of rows with status s.
func (t ServiceTable) Count(s Status) int {
	n := 0
	for _, r := range t {
		if r.Status == s {
			n++
		}
	}
	return n
}
