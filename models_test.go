package kvdoc

import (
	"fmt"
	"strconv"

	"github.com/cespare/xxhash/v2"
)

type (
	Person struct {
		ID   string `msgpack:"id" json:"id"`
		Name string `msgpack:"n" json:"n"`
	}

	barcodeKind int

	Barcode struct {
		kind barcodeKind
		qr   string
		upc  [4]int
	}
	BarcodeCoder struct {
		Kind string `msgpack:"k" json:"k"`
		QR   string `msgpack:"q,omitempty" json:"q,omitempty"`
		UPC  []int  `msgpack:"u,omitempty" json:"u,omitempty"`
	}

	Product struct {
		ID    string           `msgpack:"id" json:"id"`
		Name  string           `msgpack:"n" json:"n"`
		Price int              `msgpack:"p" json:"p"`
		Meta  *ProductMetadata `msgpack:"-" json:"-"`
	}
	ProductMetadata struct {
		CategoryID int
	}
	ProductMetadataCoder struct {
		CategoryID int `msgpack:"c" json:"c"`
	}

	Manager struct {
		ID   string           `msgpack:"id" json:"id"`
		Name string           `msgpack:"n" json:"n"`
		Meta *ManagerMetadata `msgpack:"-" json:"-"`
	}
	ManagerMetadata struct {
		Level int      `msgpack:"l" json:"l"`
		Tags  []string `msgpack:"t" json:"t"`
	}

	Employee struct {
		id   string
		name string
		meta *EmployeeMetadata
	}
	EmployeeCoder struct {
		ID   string `msgpack:"id" json:"id"`
		Name string `msgpack:"n" json:"n"`
	}
	EmployeeMetadata struct {
		Desk string `msgpack:"d" json:"d"`
	}

	Inventory struct {
		sku   string
		count int
		meta  *Stocktake
	}
	InventoryCoder struct {
		SKU   string `msgpack:"s" json:"s"`
		Count int    `msgpack:"c" json:"c"`
	}
	Stocktake struct {
		Day int
	}
	StocktakeCoder struct {
		Day int `msgpack:"d" json:"d"`
	}
)

const (
	qrCode barcodeKind = iota + 1
	upcA
)

var (
	testSchema  = NewSchema()
	people      = Objects[*Person](testSchema)
	barcodes    = Values[Barcode, *BarcodeCoder](testSchema)
	products    = ObjectsWithValueMetadata[*Product, ProductMetadata, *ProductMetadataCoder](testSchema)
	managers    = ObjectsWithObjectMetadata[*Manager, ManagerMetadata](testSchema)
	employees   = ValuesWithObjectMetadata[Employee, *EmployeeCoder, EmployeeMetadata](testSchema)
	inventories = ValuesWithValueMetadata[Inventory, *InventoryCoder, Stocktake, *StocktakeCoder](testSchema)
)

func (*Person) Collection() string { return "People" }
func (p *Person) Identifier() string { return p.ID }

func QRCode(s string) Barcode {
	return Barcode{kind: qrCode, qr: s}
}

func UPCA(a, b, c, d int) Barcode {
	return Barcode{kind: upcA, upc: [4]int{a, b, c, d}}
}

func (b Barcode) code() string {
	switch b.kind {
	case qrCode:
		return b.qr
	case upcA:
		return fmt.Sprintf("%d-%d-%d-%d", b.upc[0], b.upc[1], b.upc[2], b.upc[3])
	default:
		return ""
	}
}

func (Barcode) Collection() string { return "Barcodes" }

func (b Barcode) Identifier() string {
	return strconv.FormatUint(xxhash.Sum64String(b.code()), 16)
}

func (b Barcode) Encoded() *BarcodeCoder {
	switch b.kind {
	case qrCode:
		return &BarcodeCoder{Kind: "qr", QR: b.qr}
	case upcA:
		return &BarcodeCoder{Kind: "upca", UPC: b.upc[:]}
	default:
		return &BarcodeCoder{}
	}
}

func (c *BarcodeCoder) DecodedValue() (Barcode, bool) {
	switch c.Kind {
	case "qr":
		return QRCode(c.QR), true
	case "upca":
		if len(c.UPC) != 4 {
			return Barcode{}, false
		}
		return UPCA(c.UPC[0], c.UPC[1], c.UPC[2], c.UPC[3]), true
	default:
		return Barcode{}, false
	}
}

func (*Product) Collection() string { return "Products" }
func (p *Product) Identifier() string { return p.ID }
func (p *Product) Metadata() *ProductMetadata { return p.Meta }
func (p *Product) WithMetadata(m *ProductMetadata) *Product { p.Meta = m; return p }
func (m ProductMetadata) Encoded() *ProductMetadataCoder { return &ProductMetadataCoder{m.CategoryID} }

func (c *ProductMetadataCoder) DecodedValue() (ProductMetadata, bool) {
	if c.CategoryID <= 0 {
		return ProductMetadata{}, false
	}
	return ProductMetadata{c.CategoryID}, true
}

func (*Manager) Collection() string { return "Managers" }
func (m *Manager) Identifier() string { return m.ID }
func (m *Manager) Metadata() *ManagerMetadata { return m.Meta }
func (m *Manager) WithMetadata(meta *ManagerMetadata) *Manager { m.Meta = meta; return m }

func NewEmployee(id, name string, meta *EmployeeMetadata) Employee {
	return Employee{id, name, meta}
}

func (Employee) Collection() string { return "Employees" }
func (e Employee) Identifier() string { return e.id }
func (e Employee) Metadata() *EmployeeMetadata { return e.meta }
func (e Employee) Encoded() *EmployeeCoder { return &EmployeeCoder{e.id, e.name} }

func (e Employee) WithMetadata(m *EmployeeMetadata) Employee {
	e.meta = m
	return e
}

func (c *EmployeeCoder) DecodedValue() (Employee, bool) {
	if c.ID == "" {
		return Employee{}, false
	}
	return Employee{id: c.ID, name: c.Name}, true
}

func NewInventory(sku string, count int, meta *Stocktake) Inventory {
	return Inventory{sku, count, meta}
}

func (Inventory) Collection() string { return "Inventories" }
func (inv Inventory) Identifier() string { return inv.sku }
func (inv Inventory) Metadata() *Stocktake { return inv.meta }
func (inv Inventory) Encoded() *InventoryCoder { return &InventoryCoder{inv.sku, inv.count} }

func (inv Inventory) WithMetadata(m *Stocktake) Inventory {
	inv.meta = m
	return inv
}

func (c *InventoryCoder) DecodedValue() (Inventory, bool) {
	if c.SKU == "" {
		return Inventory{}, false
	}
	return Inventory{sku: c.SKU, count: c.Count}, true
}

func (s Stocktake) Encoded() *StocktakeCoder { return &StocktakeCoder{s.Day} }

func (c *StocktakeCoder) DecodedValue() (Stocktake, bool) {
	if c.Day <= 0 {
		return Stocktake{}, false
	}
	return Stocktake{c.Day}, true
}
