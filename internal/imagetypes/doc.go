// Package imagetypes defines the image extension allow-list and the
// sort specification types shared by the scanner and the gallery index.
package imagetypes
