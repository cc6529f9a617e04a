package overrides

import (
	"testing"

	"github.com/beevik/etree"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xmloverrides/xmloverrides/internal/testutil"
	"github.com/xmloverrides/xmloverrides/xoerrors"
)

const beansXML = `<beans>
  <bean id="a" class="A">
    <property name="scalar" value="1"/>
    <property name="single" ref="b"/>
    <property name="items"><set><value>x</value></set></property>
    <property name="nested"><bean class="Inner"/></property>
  </bean>
  <bean id="b" name="bee; beta" class="B"/>
  <bean name="twin" class="C"/>
  <bean name="twin" class="D"/>
</beans>`

func values(t *testing.T, root *etree.Element, expr string) []string {
	t.Helper()
	var out []string
	for _, n := range selectNodes(t, root, expr) {
		out = append(out, n.Value())
	}
	return out
}

func TestApplyBeans(t *testing.T) {
	root := testutil.ParseXML(t, beansXML)
	doc := testutil.ParseXML(t, testutil.Overrides(`<properties><v>42</v></properties>
<spring>
  <set bean="a" property="single" value="plain"/>
  <set bean="a" property="nested" ref="b"/>
  <add bean="a" property="items" value="${v}"/>
  <add bean="a" property="scalar" ref="beta"/>
  <set bean="bee" property="fresh" value="new"/>
  <add bean="beta" property="list" value="first"/>
</spring>`))

	result, err := NewInterpreter().ApplyBeans(doc, root)
	require.NoError(t, err)
	assert.Equal(t, 6, result.DirectivesApplied)
	require.Len(t, result.Changes, 6)
	assert.Equal(t, "a.single", result.Changes[0].Selector)

	assert.Equal(t, "plain", selectString(t, root, "bean[@id='a']/property[@name='single']/@value"))
	assert.Empty(t, selectNodes(t, root, "bean[@id='a']/property[@name='single']/@ref"))

	assert.Equal(t, "b", selectString(t, root, "bean[@id='a']/property[@name='nested']/@ref"))
	assert.Empty(t, selectNodes(t, root, "bean[@id='a']/property[@name='nested']/*"))

	assert.Equal(t, []string{"x", "42"}, values(t, root, "bean[@id='a']/property[@name='items']/set/value"))

	assert.Empty(t, selectNodes(t, root, "bean[@id='a']/property[@name='scalar']/@value"))
	assert.Equal(t, "1", selectString(t, root, "bean[@id='a']/property[@name='scalar']/list/value"))
	assert.Equal(t, "beta", selectString(t, root, "bean[@id='a']/property[@name='scalar']/list/ref/@bean"))

	assert.Equal(t, "new", selectString(t, root, "bean[@id='b']/property[@name='fresh']/@value"))
	assert.Equal(t, []string{"first"}, values(t, root, "bean[@id='b']/property[@name='list']/list/value"))
}

func TestApplyBeansErrors(t *testing.T) {
	tests := []struct {
		name   string
		spring string
		target error
	}{
		{name: "unknown bean", spring: `<set bean="nobody" property="p" value="v"/>`, target: xoerrors.ErrSelectorAmbiguity},
		{name: "duplicate bean name", spring: `<set bean="twin" property="p" value="v"/>`, target: xoerrors.ErrSelectorAmbiguity},
		{name: "unknown directive", spring: `<merge bean="a" property="p" value="v"/>`, target: xoerrors.ErrUnknownDirective},
		{name: "missing value and ref", spring: `<set bean="a" property="p"/>`, target: xoerrors.ErrUnknownDirective},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := testutil.ParseXML(t, testutil.Overrides("<spring>"+tt.spring+"</spring>"))
			_, err := NewInterpreter().ApplyBeans(doc, testutil.ParseXML(t, beansXML))
			assert.ErrorIs(t, err, tt.target)
		})
	}
}

func TestBeanHasName(t *testing.T) {
	bean := testutil.ParseXML(t, `<bean id="main" name="alias1,alias2; alias3 alias4"/>`)
	for _, name := range []string{"main", "alias1", "alias2", "alias3", "alias4"} {
		assert.True(t, beanHasName(bean, name), name)
	}
	assert.False(t, beanHasName(bean, "alias"))
	assert.False(t, beanHasName(bean, ""))
}
