// Package workflowtracker records how far a merchant conversation has moved
// through a named multi-stage workflow, along with the stage annotations the
// storefront UI reads back (image_groups, draft_ids, product_ids).
package workflowtracker
