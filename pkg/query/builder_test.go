package query

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBuilder_SelectWithJoinWhereOrderAndPaging(t *testing.T) {
	q := From("Contact").
		Select([]string{"FirstName", "Surname"}).
		Join("LEFT", "registry_pages", "RegistryPage", "`RegistryPage`.`ID` = `Contact`.`RegistryPageID`").
		Where("`Contact`.`FirstName` LIKE ?", "%Alex%").
		OrderBy("FirstName", "ASC").
		OrderBy("ID", "ASC").
		Limit(3).
		Offset(6).
		Build()

	assert.Equal(t,
		"SELECT `Contact`.`ID`, `Contact`.`FirstName`, `Contact`.`Surname` FROM `Contact` "+
			"LEFT JOIN `registry_pages` AS `RegistryPage` ON `RegistryPage`.`ID` = `Contact`.`RegistryPageID` "+
			"WHERE `Contact`.`FirstName` LIKE ? "+
			"ORDER BY `Contact`.`FirstName` ASC, `Contact`.`ID` ASC LIMIT 3 OFFSET 6",
		q.SQL)
	assert.Equal(t, []interface{}{"%Alex%"}, q.Params)
}

func TestBuilder_SelectKeepsExplicitID(t *testing.T) {
	q := From("Contact").Select([]string{"ID", "Email"}).Build()
	assert.Equal(t, "SELECT `Contact`.`ID`, `Contact`.`Email` FROM `Contact`", q.SQL)
}

func TestBuilder_JoinIsIdempotentPerAlias(t *testing.T) {
	b := From("Contact").
		Join("LEFT", "Page", "P", "1 = 1").
		Join("LEFT", "Page", "P", "1 = 1")

	assert.True(t, b.HasJoin("P"))
	assert.False(t, b.HasJoin("Q"))
	assert.Equal(t, "SELECT * FROM `Contact` LEFT JOIN `Page` AS `P` ON 1 = 1", b.Build().SQL)
}

func TestBuilder_OffsetWithoutLimitIsIgnored(t *testing.T) {
	q := From("Contact").Offset(5).Build()
	assert.Equal(t, "SELECT * FROM `Contact`", q.SQL)

	q = From("Contact").Limit(5).Offset(0).Build()
	assert.Equal(t, "SELECT * FROM `Contact` LIMIT 5", q.SQL)
}

func TestBuilder_CountDropsOrderingAndPaging(t *testing.T) {
	b := From("Contact").
		Select([]string{"FirstName"}).
		Join("LEFT", "Page", "P", "1 = 1").
		Where("`Contact`.`Surname` = ?", "Bernie").
		OrderBy("FirstName", "DESC").
		Limit(10).
		Offset(20)

	c := b.Count().Build()
	assert.Equal(t, "SELECT COUNT(*) AS `total` FROM `Contact` LEFT JOIN `Page` AS `P` ON 1 = 1 WHERE `Contact`.`Surname` = ?", c.SQL)
	assert.Equal(t, []interface{}{"Bernie"}, c.Params)

	// the original builder is untouched
	assert.Contains(t, b.Build().SQL, "LIMIT 10 OFFSET 20")
}

func TestBuilder_InsertSortsColumns(t *testing.T) {
	q := Insert("Contact", map[string]interface{}{
		"Surname":   "Bernie",
		"FirstName": "Alexander",
		"Email":     "alex@example.com",
	})

	assert.Equal(t, "INSERT INTO `Contact` (`Email`, `FirstName`, `Surname`) VALUES (?, ?, ?)", q.SQL)
	assert.Equal(t, []interface{}{"alex@example.com", "Alexander", "Bernie"}, q.Params)
}

func TestBuilder_UpdateAppendsWhereParamsAfterValues(t *testing.T) {
	q := Update("registry_pages", map[string]interface{}{"Title": "Contacts", "PageLength": 5}, "`ID` = ?", 7)

	assert.Equal(t, "UPDATE `registry_pages` SET `PageLength` = ?, `Title` = ? WHERE `ID` = ?", q.SQL)
	assert.Equal(t, []interface{}{5, "Contacts", 7}, q.Params)
}

func TestBuilder_Delete(t *testing.T) {
	q := Delete("registry_pages", "`ID` = ?", 3)
	assert.Equal(t, "DELETE FROM `registry_pages` WHERE `ID` = ?", q.SQL)
	assert.Equal(t, []interface{}{3}, q.Params)
}

func TestBuilder_WhereRawSkipsEmpty(t *testing.T) {
	q := From("Contact").WhereRaw("", nil).WhereRaw("(`a` = ? OR `b` = ?)", []interface{}{1, 2}).Build()
	assert.Equal(t, "SELECT * FROM `Contact` WHERE (`a` = ? OR `b` = ?)", q.SQL)
	assert.Len(t, q.Params, 2)
}

func TestIsValidIdentifier(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  bool
	}{
		{"simple", "FirstName", true},
		{"underscore", "registry_pages", true},
		{"trailing digit", "Field2", true},
		{"leading digit", "2Field", false},
		{"empty", "", false},
		{"space", "First Name", false},
		{"quote", "a`b", false},
		{"injection", "ID; DROP TABLE x", false},
		{"dot", "Rel.Field", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsValidIdentifier(tt.input))
		})
	}
}

func TestQuoteIdentEscapesBackticks(t *testing.T) {
	assert.Equal(t, "`a``b`", QuoteIdent("a`b"))
	assert.Equal(t, "`T`.`C`", Column("T", "C"))
}
