package writer

// =============================================================================
// XML OUTPUT
// =============================================================================
//
// STRUCTURE:
//
//   <?xml version="1.0" encoding="UTF-8"?>
//   <estoque gerado="11/03/2024 08:00:00" total="2">
//     <material n="1">
//       <NM>12.345.678</NM>
//       <Descricao>Gasket</Descricao>
//       <Saldo>1239.5</Saldo>
//       <Unidade>UN</Unidade>
//       <MRP>ZP</MRP>
//       <Classe/>
//       <UltimaAtualizacao>11/03/2024 08:00:00</UltimaAtualizacao>
//     </material>
//     ...
//   </estoque>
//
// Element names avoid accented characters; the order follows OutputColumns.
//
// =============================================================================

import (
	"bufio"
	"encoding/xml"
	"fmt"
	"io"
	"strconv"

	"github.com/ginjaninja78/material-stock-control/internal/types"
)

const xmlIndent = "  "

// xmlElementNames maps OutputColumns positions to element names.
var xmlElementNames = []string{"NM", "Descricao", "Saldo", "Unidade", "MRP", "Classe", "UltimaAtualizacao"}

// xmlElement is a node of the output document.
type xmlElement struct {
	Name       string
	Attributes []xml.Attr
	Value      string
	Children   []xmlElement
}

// writeXML writes the records as an indented XML document.
func writeXML(w io.Writer, records []types.CanonicalRecord) error {
	root := xmlElement{
		Name: "estoque",
		Attributes: []xml.Attr{
			{Name: xml.Name{Local: "total"}, Value: strconv.Itoa(len(records))},
		},
	}
	if len(records) > 0 {
		generated := xml.Attr{Name: xml.Name{Local: "gerado"}, Value: records[0].GeneratedAt.Format(types.TimestampLayout)}
		root.Attributes = append([]xml.Attr{generated}, root.Attributes...)
	}

	for i, rec := range records {
		material := xmlElement{
			Name:       "material",
			Attributes: []xml.Attr{{Name: xml.Name{Local: "n"}, Value: strconv.Itoa(i + 1)}},
		}
		for j, value := range rec.Values() {
			material.Children = append(material.Children, xmlElement{Name: xmlElementNames[j], Value: value})
		}
		root.Children = append(root.Children, material)
	}

	bw := bufio.NewWriter(w)
	if _, err := bw.WriteString(xml.Header); err != nil {
		return err
	}
	if err := writeElement(bw, root, 0); err != nil {
		return err
	}
	return bw.Flush()
}

// writeElement writes an element and its children with indentation.
// Elements without value or children are self-closing.
func writeElement(w *bufio.Writer, element xmlElement, level int) error {
	for i := 0; i < level; i++ {
		w.WriteString(xmlIndent)
	}

	w.WriteString("<" + element.Name)
	for _, attr := range element.Attributes {
		fmt.Fprintf(w, " %s=\"", attr.Name.Local)
		if err := xml.EscapeText(w, []byte(attr.Value)); err != nil {
			return err
		}
		w.WriteString("\"")
	}

	if len(element.Children) == 0 && element.Value == "" {
		_, err := w.WriteString("/>\n")
		return err
	}
	w.WriteString(">")

	if len(element.Children) == 0 {
		if err := xml.EscapeText(w, []byte(element.Value)); err != nil {
			return err
		}
	} else {
		w.WriteString("\n")
		for _, child := range element.Children {
			if err := writeElement(w, child, level+1); err != nil {
				return err
			}
		}
		for i := 0; i < level; i++ {
			w.WriteString(xmlIndent)
		}
	}

	_, err := w.WriteString("</" + element.Name + ">\n")
	return err
}
