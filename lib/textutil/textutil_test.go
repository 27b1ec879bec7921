package textutil

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNormalize(t *testing.T) {
	cases := []struct {
		in       string
		expected string
	}{
		{"  Hello  World ", "helloworld"},
		{"ログイン\nして\tください", "ログインしてください"},
		{"", ""},
	}
	for _, test := range cases {
		require.Equal(t, test.expected, Normalize(test.in))
	}
}

func TestContainsAny(t *testing.T) {
	phrases := []string{"ログイン", "会員登録", "サインイン"}
	require.True(t, ContainsAny("今すぐ ログイン してください", phrases))
	require.True(t, ContainsAny("無料で会員登録", phrases))
	require.False(t, ContainsAny("配信アーカイブ一覧", phrases))
	require.False(t, ContainsAny("", phrases))
}

func TestStripTrailingLabel(t *testing.T) {
	require.Equal(
		t, "マイルーム",
		StripTrailingLabel("マイルーム 配信アーカイブ一覧", " 配信アーカイブ一覧"),
	)
	require.Equal(
		t, "マイルーム",
		StripTrailingLabel("マイルーム", " 配信アーカイブ一覧"),
	)
}
