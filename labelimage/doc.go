// Package labelimage turns segmentation masks into per-frame descriptor tables.
//
// Typical flow: LoadDir, ApplyDriftCorrection, ApplyBoundaryRemoval, then
// DescriptorTables feeding lineage.Tracker.
package labelimage
