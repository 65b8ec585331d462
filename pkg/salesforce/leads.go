package salesforce

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/lead-classifier/internal/attribution"
)

// Lead is the subset of a lead record used for attribution.
type Lead struct {
	ID              string `json:"Id" salesforce:"Id"`
	Phone           string `json:"Phone" salesforce:"Phone"`
	MobilePhone     string `json:"MobilePhone" salesforce:"MobilePhone"`
	CreatedDate     string `json:"CreatedDate" salesforce:"CreatedDate"`
	LeadSource      string `json:"LeadSource" salesforce:"LeadSource"`
	UTMSource       string `json:"UTM_Source__c" salesforce:"UTM_Source__c"`
	UTMMedium       string `json:"UTM_Medium__c" salesforce:"UTM_Medium__c"`
	UTMOrigen       string `json:"UTM_Origen__c" salesforce:"UTM_Origen__c"`
	ProgramaInteres string `json:"Programa_Interes__c" salesforce:"Programa_Interes__c"`
	Resolucion      string `json:"Resolucion__c" salesforce:"Resolucion__c"`
}

// leadFields are the SOQL fields selected for Lead queries.
var leadFields = []string{
	"Id", "Phone", "MobilePhone", "CreatedDate", "LeadSource",
	"UTM_Source__c", "UTM_Medium__c", "UTM_Origen__c",
	"Programa_Interes__c", "Resolucion__c",
}

// IDColumn holds the record ID in tables built from lead records.
const IDColumn = "Id"

// leadColumns mirror the call-center export headers so the attribution
// matcher treats both sources alike.
var leadColumns = []string{
	IDColumn,
	"TELWHATSAPP",
	"Fecha Insert Lead",
	"UTM Source",
	"Canal",
	"UTM Medium",
	"UTM Origen",
	"Programa Interes",
	"Resolución",
}

var sobjectName = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9_]*$`)

// createdDateLayouts covers the REST API datetime format and plain RFC 3339.
var createdDateLayouts = []string{
	"2006-01-02T15:04:05.000-0700",
	"2006-01-02T15:04:05-0700",
	time.RFC3339,
}

// LoadLeadAttribution queries leads created at or after since (all leads
// when since is zero) and returns them as an attribution table.
func LoadLeadAttribution(ctx context.Context, c Client, object string, since time.Time) (attribution.Table, error) {
	if !sobjectName.MatchString(object) {
		return attribution.Table{}, eris.Errorf("sf: invalid sobject name %q", object)
	}

	soql := fmt.Sprintf("SELECT %s FROM %s", strings.Join(leadFields, ", "), object)
	if !since.IsZero() {
		soql += " WHERE CreatedDate >= " + since.UTC().Format("2006-01-02T15:04:05Z")
	}
	soql += " ORDER BY CreatedDate"

	var leads []Lead
	if err := c.Query(ctx, soql, &leads); err != nil {
		return attribution.Table{}, eris.Wrap(err, fmt.Sprintf("sf: load lead attribution from %s", object))
	}

	zap.L().Info("sf: loaded lead attribution",
		zap.String("object", object),
		zap.Int("leads", len(leads)),
	)
	return leadTable(leads), nil
}

func leadTable(leads []Lead) attribution.Table {
	tbl := attribution.Table{Columns: leadColumns, Rows: make([][]any, 0, len(leads))}
	for _, l := range leads {
		phone := l.MobilePhone
		if strings.TrimSpace(phone) == "" {
			phone = l.Phone
		}
		tbl.Rows = append(tbl.Rows, []any{
			textCell(l.ID),
			textCell(phone),
			createdCell(l.CreatedDate),
			textCell(l.UTMSource),
			textCell(l.LeadSource),
			textCell(l.UTMMedium),
			textCell(l.UTMOrigen),
			textCell(l.ProgramaInteres),
			textCell(l.Resolucion),
		})
	}
	return tbl
}

func textCell(s string) any {
	if s = strings.TrimSpace(s); s != "" {
		return s
	}
	return nil
}

func createdCell(s string) any {
	for _, layout := range createdDateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC()
		}
	}
	return nil
}
