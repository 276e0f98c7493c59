package database

// Column describes one column of a managed table.
type Column struct {
	Name    string
	Type    ColumnType
	NotNull bool
	// Default must be a constant (or CurrentTimestamp) so that it can be
	// applied by ALTER TABLE ADD COLUMN on every dialect.
	Default any
}

// Table is the target shape of a managed table. Columns are applied in
// order; any column missing from an existing table is added.
type Table struct {
	Name    string
	Columns []Column
}

// Table names.
const (
	InventoryTable     = "food_inventory"
	ConversationsTable = "conversations"
)

// Schema is the ordered list of tables this service owns.
var Schema = []Table{
	{
		Name: InventoryTable,
		Columns: []Column{
			{Name: "id", Type: TypeID},
			{Name: "name", Type: TypeText, NotNull: true},
			{Name: "amount", Type: TypeReal},
			{Name: "unit", Type: TypeText},
		},
	},
	{
		Name: ConversationsTable,
		Columns: []Column{
			{Name: "id", Type: TypeID},
			{Name: "conversation", Type: TypeText, NotNull: true},
			{Name: "created_at", Type: TypeTimestamp, NotNull: true, Default: CurrentTimestamp},
			{Name: "is_saved", Type: TypeBool, NotNull: true, Default: false},
			{Name: "is_shared", Type: TypeBool, NotNull: true, Default: false},
			{Name: "rating_sum", Type: TypeReal, NotNull: true, Default: 0.0},
			{Name: "rating_count", Type: TypeInt, NotNull: true, Default: 0},
			{Name: "photo", Type: TypeText},
			{Name: "title", Type: TypeText},
		},
	},
}
