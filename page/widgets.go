package page

import (
	"fmt"

	"github.com/chasefleming/elem-go"
	"github.com/chasefleming/elem-go/attrs"
)

// showInsteadScript swaps the visibility of two containers client-side.
func showInsteadScript(hideID, showID string) string {
	return fmt.Sprintf(
		"document.getElementById('%s').style.display = 'none'; document.getElementById('%s').style.display = '';",
		hideID, showID,
	)
}

// EditAndDeleteButton renders two sibling containers: a normally hidden one
// holding a back button and a Confirm delete button (deleteConfirmBtnID),
// and a normally visible one holding an edit button running editOnClick
// inline and a Delete button that swaps visibility to the confirm container.
// Purely generation-time templating; the caller wires the confirm button's
// handler separately.
func EditAndDeleteButton(editDeleteDivID, editOnClick, deleteConfirmDivID, deleteConfirmBtnID string) elem.Node {
	confirm := elem.Div(
		attrs.Props{
			attrs.ID:    deleteConfirmDivID,
			attrs.Class: "edit-delete-buttons",
			attrs.Style: "display: none;",
		},
		elem.Button(
			attrs.Props{
				attrs.Type: "button",
				"onclick":  showInsteadScript(deleteConfirmDivID, editDeleteDivID),
			},
			elem.Text("Back"),
		),
		elem.Button(
			attrs.Props{
				attrs.ID:    deleteConfirmBtnID,
				attrs.Type:  "button",
				attrs.Class: "delete-confirm",
			},
			elem.Text("Confirm"),
		),
	)

	visible := elem.Div(
		attrs.Props{
			attrs.ID:    editDeleteDivID,
			attrs.Class: "edit-delete-buttons",
		},
		elem.Button(
			attrs.Props{
				attrs.Type: "button",
				"onclick":  editOnClick,
			},
			elem.Text("Edit"),
		),
		elem.Button(
			attrs.Props{
				attrs.Type: "button",
				"onclick":  showInsteadScript(editDeleteDivID, deleteConfirmDivID),
			},
			elem.Text("Delete"),
		),
	)

	return elem.Div(attrs.Props{attrs.Class: "edit-delete"}, confirm, visible)
}

// AddEditAndDeleteButton appends the edit/delete widget as its own tile.
func (b *Builder) AddEditAndDeleteButton(editDeleteDivID, editOnClick, deleteConfirmDivID, deleteConfirmBtnID string) {
	b.AddTile(EditAndDeleteButton(editDeleteDivID, editOnClick, deleteConfirmDivID, deleteConfirmBtnID))
}
