package beans

import (
	"context"
	"errors"
	"testing"

	"github.com/beevik/etree"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xmloverrides/xmloverrides/internal/testutil"
	"github.com/xmloverrides/xmloverrides/overrides"
	"github.com/xmloverrides/xmloverrides/xoerrors"
)

const springConfig = `<beans>
  <bean id="testBean" class="org.example.ExampleBean">
    <property name="basicProp" value="initial"/>
    <property name="basicProp2" value="astring"/>
    <property name="simpleRef" ref="testBean3"/>
    <property name="collectionRef"><list><ref bean="testBean2"/></list></property>
    <property name="collectionProp"><list><value>aString</value></list></property>
  </bean>
  <bean id="testBean2" class="org.example.ExampleBean"/>
  <bean name="testBean3,thirdBean" class="org.example.ExampleBean"/>
</beans>`

const springOverrides = `<properties><basic>overriddenProp</basic></properties>
<spring>
  <set bean="testBean" property="basicProp" value="${basic}"/>
  <set bean="testBean" property="simpleRef" ref="testBean2"/>
  <add bean="testBean" property="collectionRef" ref="testBean3"/>
  <add bean="testBean" property="collectionProp" value="newString"/>
</spring>`

func newContext(t *testing.T, files map[string]string) (*Context, *Registry) {
	t.Helper()
	t.Setenv(overrides.EnvOverrideFiles, "")
	fsys := testutil.NewWebapp(t, files)
	o := overrides.NewOverrides(overrides.DefaultOverrideFile)
	o.Fs = fsys
	reg := NewRegistry()
	return &Context{
		Overrides:      o,
		AppPath:        testutil.AppPath,
		ConfigLocation: "/WEB-INF/test-spring-config.xml",
		Container:      reg,
		Fs:             fsys,
	}, reg
}

func TestRefreshIsIdempotent(t *testing.T) {
	bc, reg := newContext(t, map[string]string{
		"WEB-INF/test-spring-config.xml": springConfig,
		"WEB-INF/overrides-config.xml":   testutil.Overrides(springOverrides),
	})

	for i := 1; i <= 3; i++ {
		result, err := bc.Refresh(context.Background())
		require.NoError(t, err)
		assert.Equal(t, i, result.Count)
		assert.Equal(t, 4, result.Applied.DirectivesApplied)
		require.NotNil(t, result.Document)

		bean, ok := reg.Bean("testBean")
		require.True(t, ok)
		assert.Equal(t, "overriddenProp", bean.Properties["basicProp"].Value)
		assert.Equal(t, "astring", bean.Properties["basicProp2"].Value)
		assert.Equal(t, "testBean2", bean.Properties["simpleRef"].Ref)
		assert.Equal(t, []string{"testBean2", "testBean3"}, bean.Properties["collectionRef"].Refs)
		assert.Equal(t, []string{"aString", "newString"}, bean.Properties["collectionProp"].Values)
	}

	assert.Equal(t, 3, reg.Len())
	assert.Equal(t, []string{"testBean", "testBean2", "testBean3", "thirdBean"}, reg.Names())
	third, ok := reg.Bean("thirdBean")
	require.True(t, ok)
	alias, _ := reg.Bean("testBean3")
	assert.Same(t, third, alias)

	defs := reg.Definitions()
	require.Len(t, defs, 3)
	assert.Same(t, third, defs[2])
}

func TestRefreshWithoutOverrides(t *testing.T) {
	bc, reg := newContext(t, map[string]string{
		"WEB-INF/test-spring-config.xml": springConfig,
	})

	result, err := bc.Refresh(context.Background())
	require.NoError(t, err)
	assert.Zero(t, result.Applied.DirectivesApplied)

	bean, ok := reg.Bean("testBean")
	require.True(t, ok)
	assert.Equal(t, "initial", bean.Properties["basicProp"].Value)
}

func TestRefreshMultipleLocations(t *testing.T) {
	bc, reg := newContext(t, map[string]string{
		"WEB-INF/a.xml": `<beans><bean id="a" class="A"><property name="p" value="1"/></bean></beans>`,
		"WEB-INF/b.xml": `<beans><bean id="b" class="B"/></beans>`,
		"WEB-INF/overrides-config.xml": testutil.Overrides(`<file name="b.xml"><replaceAtt xpath="bean" attName="class" value="B2"/></file>
<spring><set bean="a" property="p" value="2"/></spring>`),
	})
	bc.ConfigLocation = "a.xml, b.xml"

	_, err := bc.Refresh(context.Background())
	require.NoError(t, err)

	a, ok := reg.Bean("a")
	require.True(t, ok)
	assert.Equal(t, "2", a.Properties["p"].Value)
	b, ok := reg.Bean("b")
	require.True(t, ok)
	assert.Equal(t, "B2", b.Class)
}

type failingContainer struct{ calls int }

func (f *failingContainer) Load(context.Context, *etree.Document) error {
	f.calls++
	return errors.New("boom")
}

func TestRefreshErrors(t *testing.T) {
	t.Run("no container", func(t *testing.T) {
		_, err := (&Context{}).Refresh(context.Background())
		assert.Error(t, err)
	})

	t.Run("missing definitions", func(t *testing.T) {
		bc, _ := newContext(t, map[string]string{})
		_, err := bc.Refresh(context.Background())
		assert.ErrorIs(t, err, xoerrors.ErrResourceNotFound)
	})

	t.Run("unknown bean leaves container alone", func(t *testing.T) {
		bc, reg := newContext(t, map[string]string{
			"WEB-INF/test-spring-config.xml": springConfig,
			"WEB-INF/overrides-config.xml":   testutil.Overrides(`<spring><set bean="ghost" property="p" value="v"/></spring>`),
		})
		_, err := bc.Refresh(context.Background())
		assert.ErrorIs(t, err, xoerrors.ErrSelectorAmbiguity)
		assert.Zero(t, reg.Len())
	})

	t.Run("container error", func(t *testing.T) {
		bc, _ := newContext(t, map[string]string{"WEB-INF/test-spring-config.xml": springConfig})
		fc := &failingContainer{}
		bc.Container = fc
		_, err := bc.Refresh(context.Background())
		assert.ErrorContains(t, err, "boom")
		assert.Equal(t, 1, fc.calls)
	})

	t.Run("cancelled", func(t *testing.T) {
		bc, _ := newContext(t, map[string]string{"WEB-INF/test-spring-config.xml": springConfig})
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, err := bc.Refresh(ctx)
		assert.ErrorIs(t, err, context.Canceled)
	})
}

func TestRegistryDuplicateName(t *testing.T) {
	reg := NewRegistry()
	doc := etree.NewDocument()
	require.NoError(t, doc.ReadFromString(`<beans><bean id="x"/><bean name="y,x"/></beans>`))

	err := reg.Load(context.Background(), doc)
	assert.ErrorContains(t, err, `"x"`)
	assert.Zero(t, reg.Len())
}
