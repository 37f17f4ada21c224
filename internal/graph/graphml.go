// Vestigium - OSINT Investigation Pipeline and Digital Footprint Analysis
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vestigium

package graph

import (
	"encoding/xml"
	"fmt"
	"strings"
)

// GraphML export for external visualization tools (Gephi, yEd). Node keys:
// type, label, confidence; edge keys: relationship, class, strength,
// confidence. Output is deterministic: arena order.

type graphmlDoc struct {
	XMLName xml.Name      `xml:"graphml"`
	XMLNS   string        `xml:"xmlns,attr"`
	Keys    []graphmlKey  `xml:"key"`
	Graph   graphmlGraph  `xml:"graph"`
}

type graphmlKey struct {
	ID     string `xml:"id,attr"`
	For    string `xml:"for,attr"`
	Name   string `xml:"attr.name,attr"`
	Type   string `xml:"attr.type,attr"`
}

type graphmlGraph struct {
	ID          string         `xml:"id,attr"`
	EdgeDefault string         `xml:"edgedefault,attr"`
	Nodes       []graphmlNode  `xml:"node"`
	Edges       []graphmlEdge  `xml:"edge"`
}

type graphmlNode struct {
	ID   string        `xml:"id,attr"`
	Data []graphmlData `xml:"data"`
}

type graphmlEdge struct {
	Source string        `xml:"source,attr"`
	Target string        `xml:"target,attr"`
	Data   []graphmlData `xml:"data"`
}

type graphmlData struct {
	Key   string `xml:"key,attr"`
	Value string `xml:",chardata"`
}

// GraphML serializes the graph. The output is a pure function of the
// arena contents.
func (g *Graph) GraphML() (string, error) {
	doc := graphmlDoc{
		XMLNS: "http://graphml.graphdrawing.org/xmlns",
		Keys: []graphmlKey{
			{ID: "d0", For: "node", Name: "type", Type: "string"},
			{ID: "d1", For: "node", Name: "label", Type: "string"},
			{ID: "d2", For: "node", Name: "confidence", Type: "double"},
			{ID: "d3", For: "edge", Name: "relationship", Type: "string"},
			{ID: "d4", For: "edge", Name: "class", Type: "string"},
			{ID: "d5", For: "edge", Name: "strength", Type: "double"},
			{ID: "d6", For: "edge", Name: "confidence", Type: "double"},
		},
		Graph: graphmlGraph{ID: "entities", EdgeDefault: "directed"},
	}

	for _, n := range g.nodes {
		doc.Graph.Nodes = append(doc.Graph.Nodes, graphmlNode{
			ID: n.EntityID,
			Data: []graphmlData{
				{Key: "d0", Value: string(n.Type)},
				{Key: "d1", Value: n.Label},
				{Key: "d2", Value: formatFloat(n.Confidence)},
			},
		})
	}
	for _, e := range g.edges {
		doc.Graph.Edges = append(doc.Graph.Edges, graphmlEdge{
			Source: g.nodes[e.Src].EntityID,
			Target: g.nodes[e.Dst].EntityID,
			Data: []graphmlData{
				{Key: "d3", Value: string(e.Relationship)},
				{Key: "d4", Value: string(e.Class)},
				{Key: "d5", Value: formatFloat(e.Strength)},
				{Key: "d6", Value: formatFloat(e.Confidence)},
			},
		})
	}

	var b strings.Builder
	b.WriteString(xml.Header)
	enc := xml.NewEncoder(&b)
	enc.Indent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return "", err
	}
	return b.String(), nil
}

func formatFloat(v float64) string {
	return strings.TrimRight(strings.TrimRight(fmt.Sprintf("%.4f", v), "0"), ".")
}
