// Package bpmn serializes an extraction result into a minimal BPMN 2.0
// document, the downstream artifact consumed by diagram editors.
package bpmn

import (
	"encoding/xml"
	"fmt"

	"github.com/athapong/diagram-mcp/pkg/fusion"
)

const (
	modelNS   = "http://www.omg.org/spec/BPMN/20100524/MODEL"
	diagramNS = "http://www.omg.org/spec/BPMN/20100524/DI"
	dcNS      = "http://www.omg.org/spec/DD/20100524/DC"
	targetNS  = "http://bpmn.io/schema/bpmn"
)

type definitions struct {
	XMLName   xml.Name `xml:"bpmn:definitions"`
	ModelNS   string   `xml:"xmlns:bpmn,attr"`
	DiagramNS string   `xml:"xmlns:bpmndi,attr"`
	DCNS      string   `xml:"xmlns:dc,attr"`
	TargetNS  string   `xml:"targetNamespace,attr"`
	ID        string   `xml:"id,attr"`
	Process   process  `xml:"bpmn:process"`
	Diagram   diagram  `xml:"bpmndi:BPMNDiagram"`
}

type process struct {
	ID           string     `xml:"id,attr"`
	IsExecutable bool       `xml:"isExecutable,attr"`
	Nodes        []flowNode `xml:",any"`
	Flows        []seqFlow  `xml:"bpmn:sequenceFlow"`
}

type flowNode struct {
	XMLName xml.Name
	ID      string `xml:"id,attr"`
	Name    string `xml:"name,attr"`
}

type seqFlow struct {
	ID        string `xml:"id,attr"`
	SourceRef string `xml:"sourceRef,attr"`
	TargetRef string `xml:"targetRef,attr"`
}

type diagram struct {
	ID    string `xml:"id,attr"`
	Plane plane  `xml:"bpmndi:BPMNPlane"`
}

type plane struct {
	ID          string  `xml:"id,attr"`
	BPMNElement string  `xml:"bpmnElement,attr"`
	Shapes      []shape `xml:"bpmndi:BPMNShape"`
}

type shape struct {
	ID          string `xml:"id,attr"`
	BPMNElement string `xml:"bpmnElement,attr"`
	Bounds      bounds `xml:"dc:Bounds"`
}

type bounds struct {
	X      float64 `xml:"x,attr"`
	Y      float64 `xml:"y,attr"`
	Width  float64 `xml:"width,attr"`
	Height float64 `xml:"height,attr"`
}

var nodeElements = map[fusion.ElementType]string{
	fusion.TypeTask:    "bpmn:task",
	fusion.TypeEvent:   "bpmn:intermediateThrowEvent",
	fusion.TypeGateway: "bpmn:exclusiveGateway",
}

// Marshal renders the result as a BPMN 2.0 XML document. Element and
// flow ids carry over unchanged so the output stays traceable to the
// extraction.
func Marshal(result *fusion.ExtractionResult) ([]byte, error) {
	if result == nil {
		return nil, fmt.Errorf("cannot serialize nil result")
	}

	doc := definitions{
		ModelNS:   modelNS,
		DiagramNS: diagramNS,
		DCNS:      dcNS,
		TargetNS:  targetNS,
		ID:        "definitions_1",
		Process: process{
			ID:           "process_1",
			IsExecutable: false,
		},
		Diagram: diagram{
			ID: "diagram_1",
			Plane: plane{
				ID:          "plane_1",
				BPMNElement: "process_1",
			},
		},
	}

	for _, e := range result.Elements {
		name, ok := nodeElements[e.Type]
		if !ok {
			name = nodeElements[fusion.TypeTask]
		}
		doc.Process.Nodes = append(doc.Process.Nodes, flowNode{
			XMLName: xml.Name{Local: name},
			ID:      e.ID,
			Name:    e.Name,
		})
		doc.Diagram.Plane.Shapes = append(doc.Diagram.Plane.Shapes, shape{
			ID:          e.ID + "_di",
			BPMNElement: e.ID,
			Bounds: bounds{
				X:      e.BBox.X0,
				Y:      e.BBox.Y0,
				Width:  e.BBox.Width(),
				Height: e.BBox.Height(),
			},
		})
	}

	for _, c := range result.Connections {
		doc.Process.Flows = append(doc.Process.Flows, seqFlow{
			ID:        c.ID,
			SourceRef: c.SourceID,
			TargetRef: c.TargetID,
		})
	}

	out, err := xml.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal BPMN document: %w", err)
	}
	return append([]byte(xml.Header), out...), nil
}
