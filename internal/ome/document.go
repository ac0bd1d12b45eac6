// Package ome provides the subset of the OME-XML metadata model that OME-TIFF
// plane mapping consumes and produces.
package ome

import (
	"encoding/xml"
	"errors"
	"fmt"
	"strings"
)

// Namespace is the OME-XML schema namespace written on marshal.
const Namespace = "http://www.openmicroscopy.org/Schemas/OME/2016-06"

// ErrNotOME is returned when the document root is not an OME element.
var ErrNotOME = errors.New("document root is not an OME element")

// Document is the root OME element.
type Document struct {
	XMLName xml.Name
	UUID    string  `xml:"UUID,attr,omitempty"`
	Creator string  `xml:"Creator,attr,omitempty"`
	Plates  []Plate `xml:"Plate"`
	Images  []Image `xml:"Image"`
}

// Plate is an HCS plate. Only its presence is consumed.
type Plate struct {
	ID   string `xml:"ID,attr"`
	Name string `xml:"Name,attr,omitempty"`
}

// Image is one series.
type Image struct {
	ID     string `xml:"ID,attr"`
	Name   string `xml:"Name,attr,omitempty"`
	Pixels Pixels `xml:"Pixels"`
}

// Pixels declares the geometry of an image and where its planes live.
type Pixels struct {
	ID             string     `xml:"ID,attr"`
	DimensionOrder string     `xml:"DimensionOrder,attr"`
	Type           string     `xml:"Type,attr"`
	SizeX          int        `xml:"SizeX,attr"`
	SizeY          int        `xml:"SizeY,attr"`
	SizeZ          int        `xml:"SizeZ,attr"`
	SizeC          int        `xml:"SizeC,attr"`
	SizeT          int        `xml:"SizeT,attr"`
	Channels       []Channel  `xml:"Channel"`
	TiffData       []TiffData `xml:"TiffData"`
}

// Channel is a logical channel. SamplesPerPixel 0 means unset.
type Channel struct {
	ID              string `xml:"ID,attr"`
	Name            string `xml:"Name,attr,omitempty"`
	SamplesPerPixel int    `xml:"SamplesPerPixel,attr,omitempty"`
}

// TiffData asserts that a run of planes lives at an IFD offset of some file.
// Nil fields were absent from the document.
type TiffData struct {
	IFD        *int     `xml:"IFD,attr,omitempty"`
	FirstZ     *int     `xml:"FirstZ,attr,omitempty"`
	FirstT     *int     `xml:"FirstT,attr,omitempty"`
	FirstC     *int     `xml:"FirstC,attr,omitempty"`
	PlaneCount *int     `xml:"PlaneCount,attr,omitempty"`
	UUID       *UUIDRef `xml:"UUID"`
}

// UUIDRef names the file holding a TiffData run.
type UUIDRef struct {
	FileName string `xml:"FileName,attr,omitempty"`
	Value    string `xml:",chardata"`
}

// Int returns a pointer to v, for building TiffData literals.
func Int(v int) *int {
	return &v
}

// Parse decodes an OME-XML document.
func Parse(text string) (*Document, error) {
	var doc Document
	if err := xml.Unmarshal([]byte(text), &doc); err != nil {
		return nil, fmt.Errorf("parse OME-XML: %w", err)
	}
	if doc.XMLName.Local != "OME" {
		return nil, fmt.Errorf("%w: got <%s>", ErrNotOME, doc.XMLName.Local)
	}
	for i := range doc.Images {
		for j := range doc.Images[i].Pixels.TiffData {
			if u := doc.Images[i].Pixels.TiffData[j].UUID; u != nil {
				u.Value = strings.TrimSpace(u.Value)
			}
		}
	}
	return &doc, nil
}

// Marshal encodes the document with an XML declaration and the OME namespace.
func (d *Document) Marshal() (string, error) {
	d.XMLName = xml.Name{Space: Namespace, Local: "OME"}
	out, err := xml.Marshal(d)
	if err != nil {
		return "", fmt.Errorf("marshal OME-XML: %w", err)
	}
	return xml.Header + string(out), nil
}

// HasPopulatedPixels reports whether at least one image declares the minimum
// Pixels attributes needed to lay out planes.
func (d *Document) HasPopulatedPixels() bool {
	for _, img := range d.Images {
		p := img.Pixels
		if p.SizeX > 0 && p.SizeY > 0 && p.Type != "" {
			return true
		}
	}
	return false
}
