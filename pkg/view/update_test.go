// Copyright 2025 Philipp Hossner
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package view

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEngine_RenderUpdate(t *testing.T) {
	e := newTestEngine(t, []Root{mapRoot("views", map[string]string{
		"items/_item.html.j2":         "<li>{{ item.name }}</li>",
		"layouts/application.html.j2": "[{{ yield() }}]",
	})})
	ctrl := &fakeController{}

	out, rc, err := renderOnce(t, e, Update{
		Options: Options{Layout: "layouts/application"},
		Page: func(p *UpdatePage) error {
			html, err := p.Render(Partial{Name: "items/item", Object: map[string]any{"name": "a"}})
			if err != nil {
				return err
			}
			p.ReplaceHTML("list", html)
			if err := p.Insert(InsertBottom, "list", "<li>b</li>"); err != nil {
				return err
			}
			p.Remove("old", "older")
			return p.Call("notify", "done", 2)
		},
	}, WithController(ctrl))
	require.NoError(t, err)

	assert.Equal(t, `document.getElementById("list").innerHTML = "\u003cli\u003ea\u003c/li\u003e";
document.getElementById("list").insertAdjacentHTML("beforeend", "\u003cli\u003eb\u003c/li\u003e");
document.getElementById("old").remove();
document.getElementById("older").remove();
notify("done", 2);`, out)
	assert.Equal(t, "text/javascript", ctrl.contentType)
	assert.Empty(t, ctrl.layoutPath)
	assert.Equal(t, 0, rc.Depth())
}

func TestEngine_RenderUpdateContentType(t *testing.T) {
	e := newTestEngine(t, []Root{mapRoot("views", nil)})
	ctrl := &fakeController{}

	out, _, err := renderOnce(t, e, Update{}, WithController(ctrl))
	require.NoError(t, err)
	assert.Empty(t, out)
	assert.Equal(t, "text/javascript", ctrl.contentType)
}

func TestUpdatePage_Errors(t *testing.T) {
	p := newUpdatePage(nil)

	_, err := p.Render(Text{Text: "x"})
	assert.Error(t, err)

	assert.Error(t, p.Insert(InsertPosition("middle"), "id", "x"))
	assert.Error(t, p.Call("f", func() {}))
	assert.Empty(t, p.String())
}

func TestUpdatePage_InsertPositions(t *testing.T) {
	p := newUpdatePage(nil)
	for _, pos := range []InsertPosition{InsertTop, InsertBottom, InsertBefore, InsertAfter} {
		require.NoError(t, p.Insert(pos, "x", ""))
	}

	assert.Equal(t, `document.getElementById("x").insertAdjacentHTML("afterbegin", "");
document.getElementById("x").insertAdjacentHTML("beforeend", "");
document.getElementById("x").insertAdjacentHTML("beforebegin", "");
document.getElementById("x").insertAdjacentHTML("afterend", "");`, p.String())
}
